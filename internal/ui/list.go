package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tandem/internal/repositories"
	"github.com/desertthunder/tandem/internal/shared"
)

var _ list.Item = listenerItem{}

// listenerItem wraps a [repositories.PlayerRow] to implement [list.Item].
type listenerItem struct {
	row     repositories.PlayerRow
	isOwner bool
}

func (i listenerItem) FilterValue() string { return i.row.UserID }

func (i listenerItem) Title() string {
	if i.isOwner {
		return fmt.Sprintf("%s (owner)", i.row.UserID)
	}
	return i.row.UserID
}

func (i listenerItem) Description() string {
	if !i.row.IsPlaying {
		return "not playing"
	}

	desc := i.row.TrackName
	if i.row.Artist != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.row.Artist)
	}

	position := i.row.PositionNow(time.Now())
	return fmt.Sprintf("%s • %s / %s", desc,
		shared.FormatPosition(position), shared.FormatPosition(i.row.Duration))
}
