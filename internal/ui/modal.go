package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/provider"
)

// Modal is the interface for modal dialogs. Update returns the updated
// modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldTimezone
	fieldCount
)

var profileFieldLabels = [fieldCount]string{"Name", "Email", "Phone", "Timezone"}

// profileEditor edits the operator profile through the active provider.
type profileEditor struct {
	ctx      context.Context
	provider provider.Provider
	original api.Profile
	inputs   [fieldCount]textinput.Model
	focus    int
	saving   bool
	err      string
}

// profileSavedMsg carries the result of an UpdateUserProfile call.
type profileSavedMsg struct {
	profile api.Profile
	err     error
}

func newProfileEditor(ctx context.Context, p provider.Provider, current api.Profile) *profileEditor {
	ed := &profileEditor{ctx: ctx, provider: p, original: current}
	values := [fieldCount]string{current.Name, current.Email, current.Phone, current.Timezone}
	for i := range ed.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 120
		in.Width = 40
		in.SetValue(values[i])
		ed.inputs[i] = in
	}
	ed.inputs[fieldName].Focus()
	return ed
}

// patch builds a patch holding only the fields that changed.
func (ed *profileEditor) patch() api.ProfilePatch {
	var p api.ProfilePatch
	changed := func(i int, was string) *string {
		v := strings.TrimSpace(ed.inputs[i].Value())
		if v == was {
			return nil
		}
		return &v
	}
	p.Name = changed(fieldName, ed.original.Name)
	p.Email = changed(fieldEmail, ed.original.Email)
	p.Phone = changed(fieldPhone, ed.original.Phone)
	p.Timezone = changed(fieldTimezone, ed.original.Timezone)
	return p
}

func (ed *profileEditor) setFocus(i int) {
	ed.inputs[ed.focus].Blur()
	ed.focus = (i + fieldCount) % fieldCount
	ed.inputs[ed.focus].Focus()
}

func (ed *profileEditor) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case profileSavedMsg:
		ed.saving = false
		if msg.err != nil {
			ed.err = msg.err.Error()
			return ed, nil, false
		}
		return ed, nil, true

	case tea.KeyMsg:
		if ed.saving {
			return ed, nil, false
		}
		switch {
		case key.Matches(msg, keys.Escape):
			return ed, nil, true
		case key.Matches(msg, keys.NextField):
			ed.setFocus(ed.focus + 1)
			return ed, nil, false
		case key.Matches(msg, keys.PrevField):
			ed.setFocus(ed.focus - 1)
			return ed, nil, false
		case key.Matches(msg, keys.Confirm):
			patch := ed.patch()
			if patch == (api.ProfilePatch{}) {
				return ed, nil, true
			}
			if err := api.ValidateProfilePatch(patch); err != nil {
				ed.err = err.Error()
				return ed, nil, false
			}
			ed.saving = true
			ed.err = ""
			return ed, saveProfileCmd(ed.ctx, ed.provider, patch), false
		}
	}

	var cmd tea.Cmd
	ed.inputs[ed.focus], cmd = ed.inputs[ed.focus].Update(msg)
	return ed, cmd, false
}

func (ed *profileEditor) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Edit profile"))
	b.WriteString("  ")
	b.WriteString(styles.FaintText.Render(ed.provider.Mode().Label()))
	b.WriteString("\n\n")
	for i, in := range ed.inputs {
		label := styles.MutedText.Width(10).Render(profileFieldLabels[i])
		if i == ed.focus {
			label = styles.AccentText.Width(10).Render(profileFieldLabels[i])
		}
		b.WriteString(label + in.View() + "\n")
	}
	b.WriteString("\n")
	switch {
	case ed.saving:
		b.WriteString(styles.InfoText.Render("Saving..."))
	case ed.err != "":
		b.WriteString(styles.DangerText.Render(truncate(ed.err, 60)))
	default:
		b.WriteString(styles.FaintText.Render("enter save · tab next · esc cancel"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(60).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func saveProfileCmd(ctx context.Context, p provider.Provider, patch api.ProfilePatch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, DashboardTimeout)
		defer cancel()
		profile, err := p.UpdateUserProfile(ctx, patch)
		return profileSavedMsg{profile: profile, err: err}
	}
}
