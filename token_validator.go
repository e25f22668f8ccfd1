package auth

// TokenValidator verifies tokens without tying callers to a specific
// signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (Identity, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (Identity, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (Identity, error) {
	if f == nil {
		return Identity{}, ErrTokenMalformed.Clone()
	}
	return f(tokenString)
}

var _ TokenValidator = (*TokenService)(nil)
