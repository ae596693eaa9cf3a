package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("hello"))
	assert.Error(t, ValidateMessageBody(""))
	assert.Error(t, ValidateMessageBody(strings.Repeat("a", 100001)))
	assert.Error(t, ValidateMessageBody("bad \xff utf8"))
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID("room-42"))
	assert.Error(t, ValidateConversationID(""))
	assert.Error(t, ValidateConversationID(strings.Repeat("x", 129)))
}

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID("alice"))
	assert.Error(t, ValidateUserID(""))
	assert.Error(t, ValidateUserID(strings.Repeat("x", 129)))
}
