package handlers

import (
	"regexp"
	"strings"
)

const (
	minThreshold = 1
	maxThreshold = 100000
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

type FieldError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

func validateMilkSettings(s MilkSettings) []FieldError {
	errs := []FieldError{}
	if strings.TrimSpace(s.DeviceID) != "" && !deviceIDPattern.MatchString(strings.TrimSpace(s.DeviceID)) {
		errs = append(errs, FieldError{Field: "device_id", Description: "device_id has invalid characters"})
	}
	if s.ThresholdWanted != nil && (*s.ThresholdWanted < minThreshold || *s.ThresholdWanted > maxThreshold) {
		errs = append(errs, FieldError{Field: "threshold_wanted", Description: "threshold_wanted must be between 1 and 100000"})
	}
	return errs
}
