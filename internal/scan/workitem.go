package scan

import "fmt"

// WorkItem addresses one batch of one aligned group of one archive.
type WorkItem struct {
	Archive int
	Group   int
	Batch   Batch
}

func (w WorkItem) String() string {
	return fmt.Sprintf("archive %d group %d %s", w.Archive, w.Group, w.Batch)
}

// Plan lists the work items of an archive in processing order: groups in
// trace order, batches in sample order.
func Plan(archive int, groups []*AlignedGroup, batchSize int) []WorkItem {
	var items []WorkItem
	for _, g := range groups {
		for b := range Batches(g.Len(), batchSize) {
			items = append(items, WorkItem{Archive: archive, Group: g.Index, Batch: b})
		}
	}
	return items
}
