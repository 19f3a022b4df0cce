package dto

import appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"

// ReplicaWarning reports a secondary replica that could not be updated after
// the primary write committed.
type ReplicaWarning struct {
	Code    string `json:"code"`
	Replica string `json:"replica"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Queued  bool   `json:"queued"`
}

// OperationResult is returned by every mutating registrar operation.
type OperationResult struct {
	Success  bool             `json:"success"`
	Error    *appErrors.Error `json:"error,omitempty"`
	Warnings []ReplicaWarning `json:"warnings"`
	Data     interface{}      `json:"data,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(data interface{}, warnings []ReplicaWarning) OperationResult {
	if warnings == nil {
		warnings = []ReplicaWarning{}
	}
	return OperationResult{Success: true, Data: data, Warnings: warnings}
}

// Failed builds a failed result from any error.
func Failed(err error) OperationResult {
	return OperationResult{Success: false, Error: appErrors.FromError(err), Warnings: []ReplicaWarning{}}
}
