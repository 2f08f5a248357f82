package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefix(t *testing.T) {
	assert.Equal(t, "", Prefix("abc", 0))
	assert.Equal(t, "ab", Prefix("abc", 2))
	assert.Equal(t, "abc", Prefix("abc", 3))
	assert.Equal(t, "abc", Prefix("abc", 10))
	assert.Equal(t, "猫是", Prefix("猫是动物", 2))
	assert.Equal(t, strings.Repeat("A", 200), Prefix(strings.Repeat("A", 250), 200))
}
