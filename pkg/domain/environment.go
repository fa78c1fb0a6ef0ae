package domain

import dErrors "rentrihub/pkg/domain-errors"

// Environment selects which Registry instance requests are sent to.
// Certificates, registers, and tokens are all environment-scoped; a demo
// certificate can never sign a production request.
type Environment string

const (
	EnvDemo       Environment = "demo"
	EnvProduction Environment = "production"
)

// ParseEnvironment validates a raw environment value from config or transport.
func ParseEnvironment(raw string) (Environment, error) {
	switch Environment(raw) {
	case EnvDemo, EnvProduction:
		return Environment(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown environment %q", raw)
	}
}

func (e Environment) String() string { return string(e) }
