package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// authForm is a vertical list of inputs with one focused at a time.
type authForm struct {
	title  string
	inputs []textinput.Model
	focus  int
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "› "
	in.CharLimit = 128
	in.Width = 36
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newLoginForm() authForm {
	f := authForm{
		title: "Welcome Back",
		inputs: []textinput.Model{
			newInput("Email", false),
			newInput("Password", true),
		},
	}
	f.inputs[0].Focus()
	return f
}

func newSignupForm() authForm {
	f := authForm{
		title: "Create Account",
		inputs: []textinput.Model{
			newInput("Full name", false),
			newInput("Email", false),
			newInput("Password", true),
			newInput("Confirm password", true),
		},
	}
	f.inputs[0].Focus()
	return f
}

func (f *authForm) value(i int) string { return f.inputs[i].Value() }

func (f *authForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f authForm) view(hint, switchHint string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🔐 "+f.title) + "\n")
	b.WriteString(mutedStyle.Render(appTagline()) + "\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString("\n")
	if hint != "" {
		b.WriteString(errorStyle.Render(hint) + "\n")
	}
	b.WriteString(mutedStyle.Render("enter submit · tab next field · " + switchHint))
	return formStyle.Render(b.String())
}

func renderAlert(text string, width int) string {
	box := alertStyle.Render(text + "\n\n" + mutedStyle.Render("press any key"))
	if width <= 0 {
		return box
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
