package typeset

import (
	"github.com/henry-luo/typeset/internal/parallel"
	"github.com/henry-luo/typeset/linebreak"
	"github.com/henry-luo/typeset/node"
)

// Paragraph is one independent line-breaking job for BreakAll. Each
// job carries its own arena; jobs share nothing.
type Paragraph struct {
	Arena  *node.Arena
	List   []node.Ref
	Params linebreak.Parameters
}

// BreakAll breaks independent paragraphs concurrently on a worker
// pool. Results and errors are positional. Zero or negative workers
// means one per processor. Each job must have its own Arena; the
// breaking algorithm itself stays sequential inside a job.
func BreakAll(paras []Paragraph, workers int) ([]linebreak.Result, []error) {
	results := make([]linebreak.Result, len(paras))
	errs := make([]error, len(paras))
	if len(paras) == 0 {
		return results, errs
	}

	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()

	work := make([]func(), len(paras))
	for i := range paras {
		i := i
		work[i] = func() {
			p := paras[i]
			results[i], errs[i] = linebreak.Break(p.Arena, p.List, p.Params)
		}
	}
	pool.ExecuteAll(work)
	return results, errs
}
