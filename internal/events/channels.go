package events

import (
	"hfoclass/internal/errdefs"
)

// ChannelContext carries the per-channel validity mask plus the channel
// categorization metadata exported by the preprocessing stage. Index
// slices are zero-based and may be empty when a modality is absent.
type ChannelContext struct {
	GoodChanMask []bool
	ECoGChans    []int
	DepthChans   []int
	SamplingRate float64 // 0 when not provided
}

// IsBad reports whether the zero-based channel index refers to a channel
// flagged as unusable. Indices outside the mask are a shape mismatch
// between the event set and the channel info.
func (c *ChannelContext) IsBad(chanIdx int) (bool, error) {
	if chanIdx < 0 || chanIdx >= len(c.GoodChanMask) {
		return false, errdefs.Shapef("chan_idx %d outside good_chan_mask of length %d",
			chanIdx, len(c.GoodChanMask))
	}
	return !c.GoodChanMask[chanIdx], nil
}

// NumChannels returns the number of physical channels covered by the mask.
func (c *ChannelContext) NumChannels() int {
	return len(c.GoodChanMask)
}
