package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blendpipe/blendpipe/core"
)

// generationTimeout bounds one whole run: the planner loop, every model call
// and the Blender render together.
const generationTimeout = 15 * time.Minute

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202"))
	checkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	answerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var presentLabels = map[core.StepType]string{
	core.Preprocess:     "Preparing scene specification",
	core.GeneratePlan:   "Drafting modelling plan",
	core.GenerateScript: "Writing Blender script",
	core.ValidateScript: "Reviewing script",
	core.RenderScene:    "Rendering scene",
	core.SaveArtifacts:  "Saving artifacts",
}

var pastLabels = map[core.StepType]string{
	core.Preprocess:     "Scene specification ready",
	core.GeneratePlan:   "Modelling plan drafted",
	core.GenerateScript: "Blender script written",
	core.ValidateScript: "Script approved",
	core.RenderScene:    "Scene rendered",
	core.SaveArtifacts:  "Artifacts saved",
}

type resultMsg ExecutionResult

type stepMsg core.StepType

type errMsg struct{ err error }

type generateModel struct {
	prompt    string
	engine    *Engine
	publisher *CliStepPublisher

	spinner        spinner.Model
	completedSteps []core.StepType
	currentStep    core.StepType
	result         *ExecutionResult
	err            error
	done           bool
}

func newGenerateModel(prompt string, engine *Engine, publisher *CliStepPublisher) generateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	return generateModel{
		prompt:      prompt,
		engine:      engine,
		publisher:   publisher,
		spinner:     s,
		currentStep: core.Preprocess,
	}
}

func (m generateModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startGeneration(), m.listenForNextStep())
}

func (m generateModel) startGeneration() tea.Cmd {
	return func() tea.Msg {
		resultChan := m.engine.AddRequest(m.prompt)
		select {
		case res := <-resultChan:
			if res.Err != nil {
				return errMsg{res.Err}
			}
			return resultMsg(res)
		case <-time.After(generationTimeout):
			return errMsg{fmt.Errorf("generation timed out after %s", generationTimeout)}
		}
	}
}

func (m generateModel) listenForNextStep() tea.Cmd {
	return func() tea.Msg {
		select {
		case step := <-m.publisher.stepChan:
			return stepMsg(step)
		case err := <-m.publisher.errorChan:
			return errMsg{err}
		}
	}
}

func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.err = fmt.Errorf("generation canceled")
			m.done = true
			return m, tea.Quit
		}
	case stepMsg:
		step := core.StepType(msg)
		if step != core.Done {
			m.completedSteps = append(m.completedSteps, step)
			m.currentStep = step + 1
		}
		return m, m.listenForNextStep()
	case resultMsg:
		res := ExecutionResult(msg)
		m.result = &res
		m.done = true
		return m, tea.Quit
	case errMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m generateModel) View() string {
	s := titleStyle.Render(fmt.Sprintf("Generating: %s", m.prompt)) + "\n\n"

	for _, step := range m.completedSteps {
		s += fmt.Sprintf("  %s %s\n", checkStyle.Render("✓"), stepStyle.Render(pastLabels[step]))
	}

	if m.done {
		if m.err != nil {
			s += "\n" + errTextStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
		} else if m.result != nil {
			s += "\n" + answerStyle.Render(m.result.Answer) + "\n"
			if m.result.RenderPath != "" {
				s += answerStyle.Render(fmt.Sprintf("Render: %s", m.result.RenderPath)) + "\n"
			}
			if m.result.BundlePath != "" {
				s += answerStyle.Render(fmt.Sprintf("Bundle: %s", m.result.BundlePath)) + "\n"
			}
		}
		return s
	}

	if label, ok := presentLabels[m.currentStep]; ok {
		s += fmt.Sprintf("  %s %s\n", m.spinner.View(), label)
	} else {
		s += fmt.Sprintf("  %s Thinking\n", m.spinner.View())
	}
	return s
}

// runPlain drives a generation without the TUI, printing step events as
// plain lines. Used for non-interactive terminals and CI.
func runPlain(engine *Engine, publisher *CliStepPublisher, prompt string) error {
	fmt.Printf("Generating: %s\n", prompt)

	resultChan := engine.AddRequest(prompt)
	timeout := time.After(generationTimeout)

	for {
		select {
		case step := <-publisher.stepChan:
			if step != core.Done {
				fmt.Printf("  %s\n", pastLabels[step])
			}
		case err := <-publisher.errorChan:
			return err
		case res := <-resultChan:
			if res.Err != nil {
				return res.Err
			}
			fmt.Println(res.Answer)
			if res.RenderPath != "" {
				fmt.Printf("Render: %s\n", res.RenderPath)
			}
			if res.BundlePath != "" {
				fmt.Printf("Bundle: %s\n", res.BundlePath)
			}
			return nil
		case <-timeout:
			return fmt.Errorf("generation timed out after %s", generationTimeout)
		}
	}
}
