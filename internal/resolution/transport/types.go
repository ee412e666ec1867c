package transport

import "github.com/pendergraft/abiscout/internal/abi"

// ContractData is the payload of a successful resolution response.
type ContractData struct {
	Address        string      `json:"address"`
	Name           string      `json:"name"`
	ABI            []abi.Entry `json:"abi"`
	IsVerified     bool        `json:"isVerified"`
	IsRecovered    bool        `json:"isRecovered,omitempty"`
	Implementation string      `json:"implementation,omitempty"`
}

type successResponse struct {
	Success bool         `json:"success"`
	Data    ContractData `json:"data"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}
