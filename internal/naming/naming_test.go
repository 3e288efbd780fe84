package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"ActsIn", []string{"Acts", "In"}},
		{"HTTPCode", []string{"HTTP", "Code"}},
		{"UserID", []string{"User", "ID"}},
		{"CR", []string{"CR"}},
		{"favouriteRadioStations", []string{"favourite", "Radio", "Stations"}},
		{"acts_in", []string{"acts", "in"}},
		{"Page2Title", []string{"Page2", "Title"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Words(tt.in), tt.in)
	}
}

func TestUpperSnake(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ACTS_IN", UpperSnake("ActsIn"))
	assert.Equal(t, "NOMINATIONS", UpperSnake("Nominations"))
	assert.Equal(t, "CR", UpperSnake("CR"))
	assert.Equal(t, "HTTP_CODE", UpperSnake("HTTPCode"))
	assert.Equal(t, "FRIEND_OF", UpperSnake("friend_of"))
}

func TestLowerCamel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "primitiveIntArray", LowerCamel("PrimitiveIntArray"))
	assert.Equal(t, "id", LowerCamel("ID"))
	assert.Equal(t, "userID", LowerCamel("UserID"))
	assert.Equal(t, "httpCode", LowerCamel("HTTPCode"))
	assert.Equal(t, "name", LowerCamel("Name"))
	assert.Equal(t, "bankBalance", LowerCamel("BankBalance"))
}
