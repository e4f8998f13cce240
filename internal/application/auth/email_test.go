package auth

import (
	"testing"
	"time"

	"github.com/landing-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeMessage_EscapesCode(t *testing.T) {
	msg, err := codeMessage(domain.CodeLogin, "a@b.com", "<b>1</b>", 10*time.Minute)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<b>1</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;1&lt;/b&gt;")
}

func TestCodeMessage_Signup(t *testing.T) {
	msg, err := codeMessage(domain.CodeSignup, "a@b.com", "123456", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Kode verifikasi pendaftaran akun", msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.Text, "15 menit")
	assert.Contains(t, msg.HTML, "Kode verifikasi pendaftaran")
	assert.Contains(t, msg.HTML, "Kode berlaku 15 menit.")
}
