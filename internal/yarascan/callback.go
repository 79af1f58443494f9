package yarascan

import (
	"errors"
	"fmt"

	yara "github.com/hillu/go-yara/v4"
	"github.com/rs/zerolog"

	"github.com/sigscan/sigscan/internal/pemeta"
	"github.com/sigscan/sigscan/internal/types"
)

// ErrMissingPEMeta is returned through the engine when a rule imports the
// PE metadata module and the caller supplied no report for the scan.
var ErrMissingPEMeta = errors.New("rule imports the " + pemeta.ModuleName + " module but no PE metadata was supplied")

// collector receives engine callbacks during one scan and accumulates the
// translated matches. The aux report is borrowed for the duration of the
// scan and never retained.
type collector struct {
	log     zerolog.Logger
	aux     *pemeta.Report
	matches types.ScanResult
}

// RuleMatching translates one matching rule into a Match: metadata entries
// in declaration order, then one excerpt per recorded match occurrence.
// It always tells the engine to continue so later rules still get evaluated.
func (c *collector) RuleMatching(sc *yara.ScanContext, r *yara.Rule) (bool, error) {
	m := types.Match{Rule: r.Identifier()}
	for _, meta := range r.Metas() {
		m.Meta = append(m.Meta, types.MetaPair{
			Key:   meta.Identifier,
			Value: fmt.Sprintf("%v", meta.Value),
		})
	}
	for _, s := range r.Strings() {
		for _, sm := range s.Matches(sc) {
			data := sm.Data()
			m.FoundStrings = append(m.FoundStrings, RenderExcerpt(Classify(data), data))
		}
	}
	c.matches = append(c.matches, m)
	return false, nil
}

func (c *collector) RuleNotMatching(*yara.ScanContext, *yara.Rule) (bool, error) {
	return false, nil
}

func (c *collector) ScanFinished(*yara.ScanContext) (bool, error) {
	return false, nil
}

// ImportModule hands the marshaled PE report to the engine when a rule
// imports our module. Other modules get no data and are left to the engine.
// A missing report aborts the scan; silently matching without module data
// would produce wrong verdicts.
func (c *collector) ImportModule(sc *yara.ScanContext, name string) ([]byte, bool, error) {
	if name != pemeta.ModuleName {
		return nil, false, nil
	}
	if c.aux == nil {
		c.log.Error().Str("module", name).Msg("rule imports PE metadata module but no report was supplied")
		return nil, true, ErrMissingPEMeta
	}
	data, err := c.aux.ModuleData()
	if err != nil {
		return nil, true, fmt.Errorf("marshal %s module data: %w", name, err)
	}
	return data, false, nil
}
