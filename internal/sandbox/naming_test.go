package sandbox

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceFor(t *testing.T) {
	ns := namespaceFor("analytics")
	assert.Regexp(t, regexp.MustCompile(`^analytics_sbx_[0-9a-f]{8}$`), ns)

	// distinct sessions get distinct namespaces
	assert.NotEqual(t, ns, namespaceFor("analytics"))
}

func TestNamespaceForSanitizesSource(t *testing.T) {
	ns := namespaceFor("My-Prod.DB")
	assert.Regexp(t, regexp.MustCompile(`^my_prod_db_sbx_[0-9a-f]{8}$`), ns)
}

func TestNamespaceForEmptySource(t *testing.T) {
	ns := namespaceFor("  ")
	assert.Regexp(t, regexp.MustCompile(`^sandbox_sbx_[0-9a-f]{8}$`), ns)
}
