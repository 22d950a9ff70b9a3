package dto

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Valid(t *testing.T) {
	cases := []RegisterRequest{
		{Username: "alice", Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{Username: "bob-42", Address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{Username: "Carol", Address: "0xFB6916095CA1DF60BB79CE92CE3EA74C37C5D359"},
	}
	for _, tc := range cases {
		assert.NoError(t, binding.Validator.ValidateStruct(tc), "expected valid: %+v", tc)
	}
}

func TestRegisterRequest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		message string
	}{
		{"missing username", RegisterRequest{Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, "username is required"},
		{"short username", RegisterRequest{Username: "ab", Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, "username must be 3-32 characters of a-z, 0-9 or '-'"},
		{"dotted username", RegisterRequest{Username: "a.b.c", Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, "username must be 3-32 characters of a-z, 0-9 or '-'"},
		{"missing address", RegisterRequest{Username: "alice"}, "address is required"},
		{"no prefix", RegisterRequest{Username: "alice", Address: "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, "address must be a 0x-prefixed hex address"},
		{"short address", RegisterRequest{Username: "alice", Address: "0x1234"}, "address must be a 0x-prefixed hex address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.message, ValidationMessage(err))
		})
	}
}

func TestValidationMessage_NonValidatorError(t *testing.T) {
	assert.Equal(t, "Invalid request body", ValidationMessage(errors.New("unexpected EOF")))
}
