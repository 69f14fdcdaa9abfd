// Package client talks to the equitygate onboarding service over gRPC.
//
// GRPCClient wraps the generated-style proto.OnboardingClient, keeps the
// session token returned by Login and attaches it as a bearer token to every
// later call. gRPC status codes are mapped back to the sentinel and typed
// errors of internal/common plus ErrUnavailable and ErrUnauthorized, so
// callers can use errors.Is / errors.As:
//
//	resp, err := c.Verify(ctx, email, code)
//	var ve *common.ValidationError
//	if errors.As(err, &ve) { ... }
package client
