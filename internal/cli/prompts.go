package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

func promptTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Ticker symbol (e.g. AAPL, NVDA):",
		Help:    "The stock the council should analyze",
	}
	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		s := strings.TrimSpace(strings.ToUpper(val.(string)))
		if s == "" {
			return fmt.Errorf("ticker cannot be empty")
		}
		if len(s) > 10 {
			return fmt.Errorf("ticker too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(s) {
			return fmt.Errorf("use letters, numbers, dots and hyphens only")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

func promptDate() (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Analysis date (YYYY-MM-DD):",
		Default: time.Now().Format("2006-01-02"),
	}
	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		s := strings.TrimSpace(val.(string))
		if s == "" {
			return nil
		}
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("invalid date, use YYYY-MM-DD")
		}
		if d.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", dateStr)
}

func promptHorizon() (string, error) {
	var horizon string
	prompt := &survey.Select{
		Message: "Trade horizon:",
		Options: []string{"1d", "1w", "1m"},
		Default: "1d",
	}
	if err := survey.AskOne(prompt, &horizon); err != nil {
		return "", err
	}
	return horizon, nil
}

func promptConfirm(message string) (bool, error) {
	var confirmed bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
