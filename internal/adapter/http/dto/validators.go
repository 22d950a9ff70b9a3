package dto

import (
	"strings"

	"bedrock-relay/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eth_addr", validateEthAddress)
		_ = v.RegisterValidation("subname", validateSubname)
	}
}

// validateEthAddress accepts 0x-prefixed 20-byte hex in any case.
func validateEthAddress(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// validateSubname applies the username rules used by the name service.
func validateSubname(fl validator.FieldLevel) bool {
	_, err := domain.NormalizeUsername(fl.Field().String())
	return err == nil
}

// ValidationMessage turns binding errors into a short client-facing message.
func ValidationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "eth_addr":
		return field + " must be a 0x-prefixed hex address"
	case "subname":
		return field + " must be 3-32 characters of a-z, 0-9 or '-'"
	default:
		return field + " is invalid"
	}
}
