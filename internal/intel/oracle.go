package intel

import (
	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/oracle/vclparse"
)

// DefaultOracle returns the in-process VCL parser. Callers that consume the
// external linter's JSON dumps instead construct a treejson.Decoder and pass
// it to NewEngine themselves.
func DefaultOracle() oracle.Oracle {
	return vclparse.New()
}
