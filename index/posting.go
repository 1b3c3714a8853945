package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// PostingList holds the corpus positions of every word sharing one signature.
// Positions iterate in ascending order, which is corpus order.
type PostingList struct {
	positions *roaring.Bitmap
}

func newPostingList() *PostingList {
	return &PostingList{positions: roaring.New()}
}

func (p *PostingList) add(position uint32) {
	p.positions.Add(position)
}

// Len returns the number of words in the list.
func (p *PostingList) Len() int {
	return int(p.positions.GetCardinality())
}

// Positions returns the corpus positions in ascending order.
func (p *PostingList) Positions() []uint32 {
	return p.positions.ToArray()
}
