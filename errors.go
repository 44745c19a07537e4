package junction

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorCode represents specific error conditions in the controller
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Lane identifier is not one of the four fixed lanes
	ErrCodeInvalidLane
	// Numeric input is out of its valid domain
	ErrCodeInvalidInput
	// Controller configuration is invalid
	ErrCodeInvalidConfiguration
)

// String returns a short name for the code
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidLane:
		return "invalid_lane"
	case ErrCodeInvalidInput:
		return "invalid_input"
	case ErrCodeInvalidConfiguration:
		return "invalid_configuration"
	default:
		return "none"
	}
}

// LaneError is returned when an operation receives an unknown lane
type LaneError struct {
	Code ErrorCode
	Lane string
}

func (e *LaneError) Error() string {
	return fmt.Sprintf("lane error [%s]: unknown lane", e.Lane)
}

// NewInvalidLaneError creates a new invalid lane error
func NewInvalidLaneError(lane string) *LaneError {
	return &LaneError{
		Code: ErrCodeInvalidLane,
		Lane: lane,
	}
}

// InputError is returned when numeric input falls outside its domain
type InputError struct {
	Code   ErrorCode
	Field  string
	Value  int
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error [%s=%d]: %s", e.Field, e.Value, e.Reason)
}

// NewNegativeCountError creates an input error for a negative vehicle count
func NewNegativeCountError(lane Lane, count int) *InputError {
	return &InputError{
		Code:   ErrCodeInvalidInput,
		Field:  lane.String() + ".vehicles",
		Value:  count,
		Reason: "vehicle count must not be negative",
	}
}

// NewCountTooLargeError creates an input error for a vehicle count above
// MaxVehicleCount
func NewCountTooLargeError(lane Lane, count int) *InputError {
	return &InputError{
		Code:   ErrCodeInvalidInput,
		Field:  lane.String() + ".vehicles",
		Value:  count,
		Reason: "vehicle count must not exceed " + strconv.Itoa(MaxVehicleCount),
	}
}

// NewInputError creates a new input error with custom values
func NewInputError(field string, value int, reason string) *InputError {
	return &InputError{
		Code:   ErrCodeInvalidInput,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// ConfigurationError represents controller configuration issues
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issue:     issue,
	}
}

// IsLaneError checks if an error is or wraps a LaneError
func IsLaneError(err error) bool {
	var target *LaneError
	return errors.As(err, &target)
}

// IsInputError checks if an error is or wraps an InputError
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsConfigurationError checks if an error is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		laneErr  *LaneError
		inputErr *InputError
		cfgErr   *ConfigurationError
	)
	switch {
	case errors.As(err, &laneErr):
		return laneErr.Code
	case errors.As(err, &inputErr):
		return inputErr.Code
	case errors.As(err, &cfgErr):
		return ErrCodeInvalidConfiguration
	default:
		return ErrCodeNone
	}
}
