package hub

import "errors"

var (
	ErrNoIdentity = errors.New("connection has no authenticated identity")
	ErrHubStopped = errors.New("hub is not running")

	ErrNotAuthorized = errors.New("not authorized for this board")
	ErrNotViewing    = errors.New("join the board first")
	ErrReadOnly      = errors.New("edit permission required")

	ErrPresentationActive = errors.New("a presentation is already running on this board")
	ErrNoPresentation     = errors.New("no presentation is running on this board")
	ErrNotPresenter       = errors.New("only the presenter can do this")
	ErrPresenterMustEnd   = errors.New("presenter must end the presentation")
	ErrNotParticipant     = errors.New("not a presentation participant")
	ErrPersistFailed      = errors.New("could not save presentation state")
	ErrStoreUnavailable   = errors.New("board data is temporarily unavailable")
)
