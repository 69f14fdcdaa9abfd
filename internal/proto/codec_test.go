package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())

	b, err := c.Marshal(&VerifyRequest{Email: "a@b.c", Code: "123456"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c","code":"123456"}`, string(b))

	var got VerifyRequest
	require.NoError(t, c.Unmarshal(b, &got))
	assert.Equal(t, "123456", got.Code)
}

func TestJSONCodec_EmptyPayload(t *testing.T) {
	var got Empty
	require.NoError(t, jsonCodec{}.Unmarshal(nil, &got))
}

func TestServiceDesc(t *testing.T) {
	assert.Equal(t, "/equitygate.v1.Onboarding/Login", FullMethod(MethodLogin))

	names := map[string]bool{}
	for _, m := range OnboardingServiceDesc.Methods {
		names[m.MethodName] = true
	}
	for _, want := range []string{MethodRegister, MethodVerify, MethodLogin, MethodPresignDocumentUpload, MethodPing} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, OnboardingServiceDesc.Methods, 12)
}
