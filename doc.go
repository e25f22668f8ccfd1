// Package auth is the credential core of the marketplace: it issues and
// verifies signed bearer tokens and defines the error taxonomy shared by the
// admin gate, the OTP verification bridge and the session client.
//
// Tokens:
//   - TokenService signs HS256 tokens carrying subject, role, issued-at and
//     expiry. Verify distinguishes malformed, expired and invalid tokens so
//     callers can choose their response; the admin gate collapses all three
//     into ErrUnauthorized.
//   - Previous signing keys may be supplied for rotation. They verify but
//     never sign.
//
// Errors:
//   - Sentinels are go-errors values with a category, HTTP code and text
//     code. Never mutate them; use WrapAs or Clone.
//
// Related packages:
//   - middleware/jwtware: bearer extraction and role gate for fiber.
//   - middleware/trace: per-request trace id and scoped logger.
//   - otp: phone normalization and provider delegated OTP challenges.
//   - client: session store, request interceptor, route guard and logout.
package auth
