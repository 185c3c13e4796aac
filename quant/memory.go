package quant

import "github.com/pbnjay/memory"

// histogramEntryOverhead approximates the bytes retained per distinct
// histogram bucket (hash bucket header plus one hist_item), used to fail
// fast before allocating a hash table the host cannot back.
const histogramEntryOverhead = 96

// checkHistogramBudget rejects a requested histogram capacity that would
// plainly exceed available host memory, rather than discovering the
// allocation failure midway through pam_allocacolorhash's retry loop.
func checkHistogramBudget(maxEntries int) error {
	total := memory.TotalMemory()
	if total == 0 {
		// couldn't determine memory on this platform; don't block.
		return nil
	}
	want := uint64(maxEntries) * histogramEntryOverhead
	if want > total/2 {
		return ErrOutOfMemory
	}
	return nil
}
