package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/vibes/internal/models"
	"github.com/desertthunder/vibes/internal/player"
)

const (
	seekStep    = 5 * time.Second
	volumeStep  = 0.1
	resultLimit = 20
)

// ViewState represents the current tab in the TUI.
type ViewState int

const (
	TracksView ViewState = iota
	PlaylistView
)

// Discovery is the subset of the backend client the TUI needs.
type Discovery interface {
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)
	Recommendations(ctx context.Context, mood models.Mood, genre string, limit int) ([]models.Track, error)
	SimilarTracks(ctx context.Context, trackID string, limit int) ([]models.Track, error)
}

// Player is the coordinator surface used by the TUI. [player.Coordinator] satisfies it.
type Player interface {
	Subscribe(fn player.Listener) func()
	PlayPreview(ctx context.Context, t models.Track) player.Result
	TogglePause()
	Stop()
	Seek(d time.Duration)
	SetVolume(v float64)
	Volume() float64
}

// TrackCacher stores fetched tracks; optional.
type TrackCacher interface {
	CacheTracks(tracks []models.Track) (int, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	api       Discovery
	player    Player
	cache     TrackCacher
	logger    *log.Logger
	view      ViewState
	width     int
	height    int
	input     textinput.Model
	searching bool
	results   list.Model
	tracks    []models.Track
	playlist  *models.Playlist
	plList    list.Model
	moodIndex int
	state     player.PlaybackState
	volume    float64
	bar       progress.Model
	status    string
	err       error
	help      help.Model
	keys      keyMap

	updates     chan player.PlaybackState
	unsubscribe func()
}

// Options configures optional collaborators of [NewModel].
type Options struct {
	Cache    TrackCacher
	Logger   *log.Logger
	Playlist *models.Playlist
}

// NewModel creates a new TUI model and subscribes it to the coordinator.
// Call [Model.Close] once the program exits.
func NewModel(ctx context.Context, api Discovery, p Player, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Playlist == nil {
		opts.Playlist = models.NewPlaylist(models.GeneratePlaylistName("", ""))
	}

	input := textinput.New()
	input.Placeholder = "search tracks, artists..."
	input.Prompt = "/ "
	input.CharLimit = 120

	m := &Model{
		ctx:       ctx,
		api:       api,
		player:    p,
		cache:     opts.Cache,
		logger:    opts.Logger,
		view:      TracksView,
		input:     input,
		results:   newTrackList("Tracks"),
		playlist:  opts.Playlist,
		plList:    newTrackList(opts.Playlist.Name),
		moodIndex: -1,
		volume:    p.Volume(),
		bar:       progress.New(progress.WithSolidFill("#1DB954"), progress.WithoutPercentage(), progress.WithWidth(30)),
		help:      help.New(),
		keys:      newKeyMap(),
		updates:   make(chan player.PlaybackState, 1),
	}

	updates := m.updates
	m.unsubscribe = p.Subscribe(func(s player.PlaybackState) {
		select {
		case <-updates:
		default:
		}
		updates <- s
	})
	return m
}

// Close detaches the model from the coordinator.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts listening for playback snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForPlayback())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-10)
		m.plList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case playbackMsg:
		m.state = player.PlaybackState(msg)
		m.refreshItems()
		return m, m.waitForPlayback()

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tracks = msg.tracks
		m.results.Title = msg.title
		m.results.Select(0)
		m.refreshItems()
		m.status = fmt.Sprintf("%d tracks", len(msg.tracks))
		return m, nil

	case playResultMsg:
		switch msg.result.Action {
		case player.ActionOpenedSpotify:
			m.status = fmt.Sprintf("No preview for %q, opened Spotify", msg.track.Name)
		case player.ActionPaused:
			m.status = "Paused"
		default:
			m.status = ""
		}
		return m, nil

	case controlDoneMsg:
		m.volume = m.player.Volume()
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		m.view = TracksView
		return m, m.search(m.input.Value())
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.searching = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.mood):
		m.moodIndex = (m.moodIndex + 1) % len(models.Moods)
		return m, m.recommend(models.Moods[m.moodIndex])
	case key.Matches(msg, m.keys.similar):
		if t, ok := m.selected(); ok {
			return m, m.similar(t)
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		if t, ok := m.selected(); ok {
			return m, m.play(t)
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		return m, m.control(m.player.TogglePause)
	case key.Matches(msg, m.keys.stop):
		return m, m.control(m.player.Stop)
	case key.Matches(msg, m.keys.rewind):
		return m, m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.forward):
		return m, m.seekBy(seekStep)
	case key.Matches(msg, m.keys.volUp):
		return m, m.setVolume(m.volume + volumeStep)
	case key.Matches(msg, m.keys.volDown):
		return m, m.setVolume(m.volume - volumeStep)
	case key.Matches(msg, m.keys.add):
		m.addSelected()
		return m, nil
	case key.Matches(msg, m.keys.remove):
		m.removeSelected()
		return m, nil
	case key.Matches(msg, m.keys.switchTab):
		if m.view == TracksView {
			m.view = PlaylistView
		} else {
			m.view = TracksView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TracksView:
		m.results, cmd = m.results.Update(msg)
	case PlaylistView:
		m.plList, cmd = m.plList.Update(msg)
	}
	return m, cmd
}

// selected returns the highlighted track of the current tab.
func (m *Model) selected() (models.Track, bool) {
	l := m.results
	if m.view == PlaylistView {
		l = m.plList
	}
	item, ok := l.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

func (m *Model) addSelected() {
	t, ok := m.selected()
	if !ok {
		return
	}
	if m.playlist.Add(t) {
		m.status = fmt.Sprintf("Added %q (%d in playlist)", t.Name, m.playlist.Len())
	} else {
		m.status = fmt.Sprintf("%q is already in the playlist", t.Name)
	}
	m.refreshItems()
}

func (m *Model) removeSelected() {
	t, ok := m.selected()
	if !ok {
		return
	}
	if m.playlist.Remove(t.ID) {
		m.status = fmt.Sprintf("Removed %q", t.Name)
		m.refreshItems()
	}
}

// Playlist returns the playlist assembled in the session.
func (m *Model) Playlist() *models.Playlist {
	return m.playlist
}

func (m *Model) refreshItems() {
	playing := func(id string) bool { return m.state.IsPlaying && id == m.state.ActiveTrackID }
	m.results.SetItems(trackItems(m.tracks, playing, m.playlist.Contains))
	m.plList.SetItems(trackItems(m.playlist.Tracks, playing, func(string) bool { return false }))
	m.plList.Title = fmt.Sprintf("%s (%d)", m.playlist.Name, m.playlist.Len())
}

// waitForPlayback blocks on the mailbox and converts the next snapshot into a message.
func (m *Model) waitForPlayback() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return playbackMsg(s)
	}
}

func (m *Model) search(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	return m.fetch(fmt.Sprintf("Search: %s", query), func(ctx context.Context) ([]models.Track, error) {
		return m.api.Search(ctx, query, resultLimit)
	})
}

func (m *Model) recommend(mood models.Mood) tea.Cmd {
	genre := strings.TrimSpace(m.input.Value())
	title := models.GeneratePlaylistName(mood, genre)
	return m.fetch(title, func(ctx context.Context) ([]models.Track, error) {
		return m.api.Recommendations(ctx, mood, genre, resultLimit)
	})
}

func (m *Model) similar(t models.Track) tea.Cmd {
	return m.fetch(fmt.Sprintf("Similar to %s", t.Name), func(ctx context.Context) ([]models.Track, error) {
		return m.api.SimilarTracks(ctx, t.ID, resultLimit)
	})
}

func (m *Model) fetch(title string, fn func(context.Context) ([]models.Track, error)) tea.Cmd {
	m.status = "Loading..."
	return func() tea.Msg {
		tracks, err := fn(m.ctx)
		if err == nil && m.cache != nil {
			if _, cerr := m.cache.CacheTracks(tracks); cerr != nil {
				m.logger.Warn("caching tracks", "error", cerr)
			}
		}
		return tracksFetchedMsg{title: title, tracks: tracks, err: err}
	}
}

func (m *Model) play(t models.Track) tea.Cmd {
	return func() tea.Msg {
		res := m.player.PlayPreview(m.ctx, t)
		m.logger.Info("play", "track", t.ID, "action", res.Action)
		return playResultMsg{track: t, result: res}
	}
}

func (m *Model) control(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return controlDoneMsg{}
	}
}

// seekBy moves the playhead, clamped to the clip.
func (m *Model) seekBy(delta time.Duration) tea.Cmd {
	if !m.state.Active() {
		return nil
	}
	target := min(max(m.state.Position+delta, 0), m.state.Duration)
	return m.control(func() { m.player.Seek(target) })
}

func (m *Model) setVolume(v float64) tea.Cmd {
	v = min(max(v, 0), 1)
	m.volume = v
	return m.control(func() { m.player.SetVolume(v) })
}

// View renders the tabs, the active list and the mini-player.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	if m.searching || m.input.Value() != "" {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	switch m.view {
	case TracksView:
		b.WriteString(m.results.View())
	case PlaylistView:
		b.WriteString(m.plList.View())
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(styles.warn.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(styles.footer.Render(m.renderPlayer()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := []string{"Tracks", fmt.Sprintf("Playlist (%d)", m.playlist.Len())}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if ViewState(i) == m.view {
			rendered[i] = styles.active.Render(t)
		} else {
			rendered[i] = styles.tab.Render(t)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.title.Render("vibes "), lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

// renderPlayer draws the mini-player from the last snapshot.
func (m *Model) renderPlayer() string {
	vol := fmt.Sprintf("vol %d%%", int(m.volume*100+0.5))
	if !m.state.Active() {
		return styles.help.Render("Nothing playing") + "  " + vol
	}

	icon := "⏸"
	if m.state.IsPlaying {
		icon = "▶"
	}

	name := m.state.ActiveTrackID
	if t, ok := m.lookup(m.state.ActiveTrackID); ok {
		name = t.Info().String()
	}

	clock := fmt.Sprintf("%s / %s",
		models.FormatDuration(int(m.state.Position.Milliseconds())),
		models.FormatDuration(int(m.state.Duration.Milliseconds())))

	return fmt.Sprintf("%s %s  %s  %s  %s", styles.playing.Render(icon), name, m.bar.ViewAs(m.state.Progress()), clock, vol)
}

func (m *Model) lookup(id string) (models.Track, bool) {
	for _, t := range m.tracks {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range m.playlist.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Track{}, false
}
