package screensaver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/rkoesters/xdg/keyfile"

	"github.com/ukui/deskprefs/internal/settings"
	"github.com/ukui/deskprefs/internal/ui"
)

// Installed locations.
const (
	DefaultThemeDir = "/usr/share/applications/screensavers"
	DefaultBinary   = "/usr/lib/ukui-screensaver/ukui-screensaver-default"
	DialogBinary    = "ukui-screensaver-dialog"
)

// MaxTextLength is the longest display text, in characters.
const MaxTextLength = 30

// TextLimitNotice is shown once the display text reaches MaxTextLength.
const TextLimitNotice = "Up to 30 characters"

// Keys read and written by the panel.
const (
	keyMode           = "mode"
	keyThemes         = "themes"
	keyLock           = "lock-enabled"
	keyActive         = "idle-activation-enabled"
	keyAutoSwitch     = "automatic-switching-enabled"
	keyMyText         = "mytext"
	keyTextCenter     = "text-is-center"
	keyShowRestTime   = "show-rest-time"
	keyIdleDelay      = "idle-delay"
	keyBackgroundPath = "background-path"
	keyCycleTime      = "cycle-time"
)

// Fixed mode combo entries; themes follow and Customize is last.
const (
	indexDefaultUKUI = 0
	indexBlankOnly   = 1
)

// Combo labels of the fixed modes.
const (
	LabelDefaultUKUI = "UKUI"
	LabelBlankOnly   = "Blank_Only"
	LabelCustomize   = "Customize"
)

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithThemeDir sets the directory scanned for theme descriptors.
func WithThemeDir(dir string) PanelOption {
	return func(p *Panel) {
		p.themeDir = dir
	}
}

// WithLocale sets the locale used for theme names.
func WithLocale(l keyfile.Locale) PanelOption {
	return func(p *Panel) {
		p.locale = l
	}
}

// WithDefaultBinary sets the program previewed in UKUI and Customize mode.
func WithDefaultBinary(path string) PanelOption {
	return func(p *Panel) {
		p.binary = path
	}
}

// WithDialogBinary sets the program started when the preview is clicked.
func WithDialogBinary(path string) PanelOption {
	return func(p *Panel) {
		p.dialog = path
	}
}

// WithSourceChooser sets the directory picker used by the source button. It
// receives the current path and returns "" when cancelled.
func WithSourceChooser(fn func(current string) string) PanelOption {
	return func(p *Panel) {
		p.chooser = fn
	}
}

// WithPanelLogger sets the logger.
func WithPanelLogger(logger hclog.Logger) PanelOption {
	return func(p *Panel) {
		p.logger = logger
	}
}

// Panel is the screensaver settings page. All methods must be called from
// the goroutine running the UI loop.
type Panel struct {
	store   *settings.Store
	preview *Preview
	logger  hclog.Logger

	themeDir string
	binary   string
	dialog   string
	locale   keyfile.Locale
	chooser  func(current string) string

	screensaver *settings.Settings
	session     *settings.Settings
	defaults    *settings.Settings
	handlers    []func()

	themes         map[string]ThemeInfo
	customizeIndex int
	shown          bool
	// writing is set while the panel writes a key so that the resulting
	// change notification is not applied back to the widgets.
	writing bool

	Surface        *ui.Surface
	ModeCombo      *ui.ComboBox
	IdleSlider     *ui.Slider
	LockSwitch     *ui.Switch
	ShowRestTime   *ui.Switch
	CustomizeFrame *ui.Frame
	SourcePath     *ui.LineEdit
	SourceButton   *ui.Button
	CycleCombo     *ui.ComboBox
	RandomSwitch   *ui.Switch
	TextEdit       *ui.TextEdit
	TextNotice     *ui.Label
	CenterSwitch   *ui.Switch
}

// NewPanel creates the panel's widgets. Nothing is read until Show.
func NewPanel(store *settings.Store, preview *Preview, surface *ui.Surface, opts ...PanelOption) *Panel {
	p := &Panel{
		store:          store,
		preview:        preview,
		logger:         hclog.NewNullLogger(),
		themeDir:       DefaultThemeDir,
		binary:         DefaultBinary,
		dialog:         DialogBinary,
		locale:         keyfile.DefaultLocale(),
		customizeIndex: -1,

		Surface:        surface,
		ModeCombo:      ui.NewComboBox(),
		IdleSlider:     ui.NewSlider(IdleSliderMin, IdleSliderMax, IdleLabels...),
		LockSwitch:     ui.NewSwitch(),
		ShowRestTime:   ui.NewSwitch(),
		CustomizeFrame: ui.NewFrame("customize"),
		SourcePath:     ui.NewLineEdit(),
		SourceButton:   ui.NewButton("Select"),
		CycleCombo:     ui.NewComboBox(),
		RandomSwitch:   ui.NewSwitch(),
		TextEdit:       ui.NewTextEdit("Enter text, up to 30 characters"),
		TextNotice:     ui.NewLabel(TextLimitNotice),
		CenterSwitch:   ui.NewSwitch(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Themes returns the discovered themes keyed by id.
func (p *Panel) Themes() map[string]ThemeInfo {
	return p.themes
}

// CustomizeIndex returns the position of the Customize entry in ModeCombo.
func (p *Panel) CustomizeIndex() int {
	return p.customizeIndex
}

// Show builds the panel on first display. Later calls do nothing.
func (p *Panel) Show() {
	if p.shown {
		return
	}
	p.shown = true

	p.screensaver = p.open(settings.ScreensaverSchema)
	p.session = p.open(settings.SessionSchema)
	p.defaults = p.open(settings.ScreensaverDefaultSchema)
	p.themes = LoadThemes(p.themeDir, p.locale, p.logger)

	p.initComponent()
	p.initShowRestTime()
	p.initThemeStatus()
	p.initIdleSlider()
}

// StartPreview launches the preview for the selected mode.
func (p *Panel) StartPreview() {
	p.startupScreensaver()
}

// Close stops the preview and detaches from the settings store.
func (p *Panel) Close() {
	p.preview.Stop()
	for _, disconnect := range p.handlers {
		disconnect()
	}
	p.handlers = nil
}

func (p *Panel) open(id string) *settings.Settings {
	s, err := p.store.Settings(id)
	if err != nil {
		p.logger.Debug("schema not installed", "schema", id)
		return nil
	}
	return s
}

func has(s *settings.Settings, key string) bool {
	return s != nil && s.HasKey(key)
}

func quietly(w interface{ BlockSignals(bool) bool }, fn func()) {
	prev := w.BlockSignals(true)
	fn()
	w.BlockSignals(prev)
}

// write runs fn with settings notifications to the panel suspended.
func (p *Panel) write(fn func() error) {
	p.writing = true
	defer func() { p.writing = false }()
	if err := fn(); err != nil {
		p.logger.Warn("failed to write setting", "error", err)
	}
}

func (p *Panel) watch(s *settings.Settings, fn func(key string)) {
	if s == nil {
		return
	}
	id := s.Connect(func(key string) {
		if p.writing {
			return
		}
		fn(key)
	})
	p.handlers = append(p.handlers, func() { s.Disconnect(id) })
}

func (p *Panel) initComponent() {
	// Lock activation lives on the lock screen; the switch is kept hidden.
	p.LockSwitch.SetVisible(false)
	if has(p.screensaver, keyLock) {
		quietly(p.LockSwitch, func() { p.LockSwitch.SetChecked(p.screensaver.Bool(keyLock)) })
		p.LockSwitch.CheckedChanged.Connect(func(on bool) {
			p.write(func() error { return p.screensaver.SetBool(keyLock, on) })
		})
	} else {
		p.LockSwitch.SetEnabled(false)
	}

	p.initCustomizeFrame()

	quietly(p.ModeCombo, func() {
		p.ModeCombo.AddItem(LabelDefaultUKUI, nil)
		p.ModeCombo.AddItem(LabelBlankOnly, nil)
		for _, id := range SortedIDs(p.themes) {
			info := p.themes[id]
			p.ModeCombo.AddItem(info.Name, info)
		}
		p.ModeCombo.AddItem(LabelCustomize, nil)
	})
	p.customizeIndex = p.ModeCombo.Count() - 1

	if !has(p.screensaver, keyActive) {
		p.IdleSlider.SetEnabled(false)
	}
	if !has(p.screensaver, keyMode) {
		p.ModeCombo.SetEnabled(false)
	}

	p.watch(p.screensaver, p.onScreensaverChanged)
	p.watch(p.session, p.onSessionChanged)
	p.watch(p.defaults, p.onDefaultsChanged)

	p.IdleSlider.ValueChanged.Connect(p.onIdleSliderChanged)
	p.ModeCombo.CurrentIndexChanged.Connect(p.onModeChanged)
	p.Surface.Destroyed.Connect(func(struct{}) { p.preview.Stop() })
	p.Surface.Clicked.Connect(func(struct{}) {
		if err := p.preview.Launch(p.dialog, "--screensaver"); err != nil {
			p.logger.Warn("failed to start screensaver dialog", "error", err)
		}
	})
}

func (p *Panel) initShowRestTime() {
	if !has(p.screensaver, keyShowRestTime) {
		p.ShowRestTime.SetEnabled(false)
		return
	}
	quietly(p.ShowRestTime, func() { p.ShowRestTime.SetChecked(p.screensaver.Bool(keyShowRestTime)) })
	p.ShowRestTime.CheckedChanged.Connect(func(on bool) {
		p.write(func() error { return p.screensaver.SetBool(keyShowRestTime, on) })
	})
}

func (p *Panel) initCustomizeFrame() {
	p.CustomizeFrame.SetVisible(false)

	if has(p.defaults, keyBackgroundPath) {
		p.SourcePath.SetText(p.defaults.String(keyBackgroundPath))
		p.SourceButton.Clicked.Connect(func(struct{}) {
			if p.chooser != nil {
				p.SelectSource(p.chooser(p.defaults.String(keyBackgroundPath)))
			}
		})
	} else {
		p.SourceButton.SetEnabled(false)
	}

	quietly(p.CycleCombo, func() {
		for i, label := range CycleLabels {
			secs, _ := CycleIndexToSeconds(i)
			p.CycleCombo.AddItem(label, secs)
		}
	})
	if has(p.defaults, keyCycleTime) {
		p.syncCycleCombo()
		p.CycleCombo.CurrentIndexChanged.Connect(func(index int) {
			secs, ok := CycleIndexToSeconds(index)
			if !ok {
				return
			}
			p.write(func() error { return p.defaults.SetInt(keyCycleTime, secs) })
		})
	} else {
		p.CycleCombo.SetEnabled(false)
	}

	if has(p.screensaver, keyAutoSwitch) {
		quietly(p.RandomSwitch, func() { p.RandomSwitch.SetChecked(p.screensaver.Bool(keyAutoSwitch)) })
		p.RandomSwitch.CheckedChanged.Connect(func(on bool) {
			p.write(func() error { return p.screensaver.SetBool(keyAutoSwitch, on) })
		})
	} else {
		p.RandomSwitch.SetEnabled(false)
	}

	p.TextNotice.SetVisible(false)
	if has(p.screensaver, keyMyText) {
		p.syncText()
		p.TextEdit.TextChanged.Connect(p.onTextChanged)
	} else {
		p.TextEdit.SetEnabled(false)
	}

	if has(p.screensaver, keyTextCenter) {
		quietly(p.CenterSwitch, func() { p.CenterSwitch.SetChecked(p.screensaver.Bool(keyTextCenter)) })
		p.CenterSwitch.CheckedChanged.Connect(func(on bool) {
			p.write(func() error { return p.screensaver.SetBool(keyTextCenter, on) })
		})
	} else {
		p.CenterSwitch.SetEnabled(false)
	}
}

// SelectSource sets the customize-mode picture directory. An empty dir
// means the choice was cancelled.
func (p *Panel) SelectSource(dir string) {
	if dir == "" || !p.SourceButton.Enabled() {
		return
	}
	p.SourcePath.SetText(dir)
	p.write(func() error { return p.defaults.SetString(keyBackgroundPath, dir) })
}

func (p *Panel) onTextChanged(text string) {
	runes := []rune(text)
	if len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
		quietly(p.TextEdit, func() { p.TextEdit.SetText(text) })
	}
	p.TextNotice.SetVisible(len(runes) >= MaxTextLength)
	p.write(func() error { return p.screensaver.SetString(keyMyText, text) })
}

func (p *Panel) syncText() {
	text := p.screensaver.String(keyMyText)
	quietly(p.TextEdit, func() { p.TextEdit.SetText(text) })
	p.TextNotice.SetVisible(p.TextEdit.Len() >= MaxTextLength)
}

func (p *Panel) syncCycleCombo() {
	if idx, ok := SecondsToCycleIndex(p.defaults.Int(keyCycleTime)); ok {
		quietly(p.CycleCombo, func() { p.CycleCombo.SetCurrentIndex(idx) })
	}
}

func (p *Panel) setSlider(pos int) {
	quietly(p.IdleSlider, func() { p.IdleSlider.SetValue(pos) })
}

func (p *Panel) initIdleSlider() {
	if p.screensaver == nil {
		return
	}
	if !p.screensaver.Bool(keyActive) || p.session == nil {
		p.setSlider(MinutesToSlider(Never))
		return
	}
	p.setSlider(MinutesToSlider(p.session.Int(keyIdleDelay)))
}

// initThemeStatus selects the combo entry matching the stored mode.
func (p *Panel) initThemeStatus() {
	if p.screensaver == nil {
		p.logger.Debug("screensaver schema not installed")
		return
	}

	prev := p.ModeCombo.BlockSignals(true)
	defer p.ModeCombo.BlockSignals(prev)

	mode, err := ParseMode(p.screensaver.Enum(keyMode))
	if err != nil {
		p.logger.Debug("unreadable screensaver mode", "error", err)
		mode = ModeSingle
	}

	switch mode {
	case ModeDefaultUKUI:
		p.ModeCombo.SetCurrentIndex(indexDefaultUKUI)
		p.CustomizeFrame.SetVisible(false)
	case ModeBlankOnly:
		p.ModeCombo.SetCurrentIndex(indexBlankOnly)
		p.CustomizeFrame.SetVisible(false)
	case ModeCustomize:
		p.ModeCombo.SetCurrentIndex(p.customizeIndex)
		p.CustomizeFrame.SetVisible(true)
	default:
		p.CustomizeFrame.SetVisible(false)
		idx := -1
		if themes := p.screensaver.Strv(keyThemes); len(themes) > 0 {
			idx = p.themeIndex(themes[0])
		}
		if idx < 0 {
			idx = indexBlankOnly
		}
		p.ModeCombo.SetCurrentIndex(idx)
	}
}

func (p *Panel) themeIndex(id string) int {
	for i := indexBlankOnly + 1; i < p.customizeIndex; i++ {
		if info, ok := p.ModeCombo.ItemData(i).(ThemeInfo); ok && info.ID == id {
			return i
		}
	}
	return -1
}

// ModeIndex resolves a mode nick, theme id or theme name to its combo
// position.
func (p *Panel) ModeIndex(name string) (int, error) {
	switch name {
	case ModeDefaultUKUI.String(), LabelDefaultUKUI:
		return indexDefaultUKUI, nil
	case ModeBlankOnly.String(), LabelBlankOnly:
		return indexBlankOnly, nil
	case ModeCustomize.String(), LabelCustomize:
		return p.customizeIndex, nil
	}
	if idx := p.themeIndex(name); idx >= 0 {
		return idx, nil
	}
	if idx := p.themeIndex(ThemeIDPrefix + strings.ToLower(name)); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("unknown screensaver mode or theme: %q", name)
}

func (p *Panel) onIdleSliderChanged(pos int) {
	if p.screensaver == nil {
		return
	}
	minutes := SliderToMinutes(pos)
	p.write(func() error {
		if minutes == Never {
			return p.screensaver.SetBool(keyActive, false)
		}
		if !p.screensaver.Bool(keyActive) {
			if err := p.screensaver.SetBool(keyActive, true); err != nil {
				return err
			}
		}
		if p.session == nil {
			return nil
		}
		return p.session.SetInt(keyIdleDelay, minutes)
	})
}

func (p *Panel) onModeChanged(index int) {
	if p.screensaver == nil {
		return
	}
	p.write(func() error {
		switch index {
		case indexDefaultUKUI:
			p.CustomizeFrame.SetVisible(false)
			return p.screensaver.SetEnum(keyMode, ModeDefaultUKUI.String())
		case indexBlankOnly:
			p.CustomizeFrame.SetVisible(false)
			return p.screensaver.SetEnum(keyMode, ModeBlankOnly.String())
		case p.customizeIndex:
			p.CustomizeFrame.SetVisible(true)
			return p.screensaver.SetEnum(keyMode, ModeCustomize.String())
		default:
			p.CustomizeFrame.SetVisible(false)
			if err := p.screensaver.SetEnum(keyMode, ModeSingle.String()); err != nil {
				return err
			}
			info, ok := p.ModeCombo.ItemData(index).(ThemeInfo)
			if !ok {
				return nil
			}
			return p.screensaver.SetStrv(keyThemes, []string{info.ID})
		}
	})
	p.startupScreensaver()
}

func (p *Panel) startupScreensaver() {
	p.preview.Stop()
	if p.Surface.IsDestroyed() {
		return
	}

	var exec string
	switch idx := p.ModeCombo.CurrentIndex(); idx {
	case indexDefaultUKUI, p.customizeIndex:
		exec = p.binary
	case indexBlankOnly:
	default:
		if info, ok := p.ModeCombo.ItemData(idx).(ThemeInfo); ok {
			exec = info.Exec
		}
	}

	if exec == "" {
		p.Surface.Update()
		return
	}
	if err := p.preview.Start(exec, p.Surface.WinID()); err != nil {
		p.logger.Warn("failed to start preview", "exec", exec, "error", err)
		p.Surface.Update()
	}
}

func (p *Panel) onScreensaverChanged(key string) {
	switch key {
	case keyActive:
		if !p.screensaver.Bool(keyActive) {
			p.setSlider(MinutesToSlider(Never))
		} else {
			p.initIdleSlider()
		}
	case keyMode, keyThemes:
		p.initThemeStatus()
	case keyLock:
		quietly(p.LockSwitch, func() { p.LockSwitch.SetChecked(p.screensaver.Bool(keyLock)) })
	case keyShowRestTime:
		quietly(p.ShowRestTime, func() { p.ShowRestTime.SetChecked(p.screensaver.Bool(keyShowRestTime)) })
	case keyAutoSwitch:
		quietly(p.RandomSwitch, func() { p.RandomSwitch.SetChecked(p.screensaver.Bool(keyAutoSwitch)) })
	case keyTextCenter:
		quietly(p.CenterSwitch, func() { p.CenterSwitch.SetChecked(p.screensaver.Bool(keyTextCenter)) })
	case keyMyText:
		p.syncText()
	}
}

func (p *Panel) onSessionChanged(key string) {
	if key != keyIdleDelay || p.screensaver == nil {
		return
	}
	if p.screensaver.Bool(keyActive) {
		p.setSlider(MinutesToSlider(p.session.Int(keyIdleDelay)))
	}
}

func (p *Panel) onDefaultsChanged(key string) {
	switch key {
	case keyBackgroundPath:
		p.SourcePath.SetText(p.defaults.String(keyBackgroundPath))
	case keyCycleTime:
		p.syncCycleCombo()
	}
}

// OnRemoteKeyChanged handles a key synced from another machine.
func (p *Panel) OnRemoteKeyChanged(key string) {
	if key == RemoteScreensaverKey {
		p.initThemeStatus()
	}
}

// Status is a snapshot of what the panel displays.
type Status struct {
	Mode         string
	Theme        string
	Idle         string
	Customize    bool
	Source       string
	Cycle        string
	Random       bool
	Text         string
	TextCenter   bool
	ShowRestTime bool
	Disabled     []string
}

// Status reports the current widget state.
func (p *Panel) Status() Status {
	st := Status{
		Mode:         p.ModeCombo.CurrentText(),
		Customize:    p.CustomizeFrame.Visible(),
		Source:       p.SourcePath.Text(),
		Cycle:        p.CycleCombo.CurrentText(),
		Random:       p.RandomSwitch.Checked(),
		Text:         p.TextEdit.Text(),
		TextCenter:   p.CenterSwitch.Checked(),
		ShowRestTime: p.ShowRestTime.Checked(),
	}
	if info, ok := p.ModeCombo.CurrentData().(ThemeInfo); ok {
		st.Theme = info.ID
	}
	if labels := p.IdleSlider.Labels(); len(labels) > 0 {
		lo, _ := p.IdleSlider.Range()
		st.Idle = labels[p.IdleSlider.Value()-lo]
	}

	controls := []struct {
		name    string
		enabled bool
	}{
		{"mode", p.ModeCombo.Enabled()},
		{"idle", p.IdleSlider.Enabled()},
		{"source", p.SourceButton.Enabled()},
		{"cycle", p.CycleCombo.Enabled()},
		{"random", p.RandomSwitch.Enabled()},
		{"text", p.TextEdit.Enabled()},
		{"center", p.CenterSwitch.Enabled()},
		{"rest-time", p.ShowRestTime.Enabled()},
	}
	for _, c := range controls {
		if !c.enabled {
			st.Disabled = append(st.Disabled, c.name)
		}
	}
	slices.Sort(st.Disabled)
	return st
}
