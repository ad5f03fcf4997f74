package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"minuta/internal/config"
	"minuta/internal/models"
	"minuta/internal/workspace"
)

var listItemRegex = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)

func newCaseCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	caseCmd := &cobra.Command{
		Use:   "case",
		Short: "Manage the drafted case",
	}

	var (
		fromFile   string
		caseNumber string
		court      string
		claimant   string
		respondent string
	)

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new case, replacing the saved session",
		Long:  "Start a new case from flags or from a case brief: a markdown file with YAML front matter whose list items become analysis topics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := models.ProjectState{
				ProcessingMode: models.ProcessingModeFull,
			}

			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				brief, topics, err := parseCaseBrief(string(data))
				if err != nil {
					return err
				}
				state.Case = brief
				for _, title := range topics {
					state.Topics = append(state.Topics, models.Topic{Title: title})
				}
			}

			if caseNumber != "" {
				state.Case.CaseNumber = caseNumber
			}
			if court != "" {
				state.Case.Court = court
			}
			if claimant != "" {
				state.Case.Claimant = claimant
			}
			if respondent != "" {
				state.Case.Respondent = respondent
			}
			if state.Case.CaseNumber == "" {
				return errors.New("a case number is required (--number or front matter)")
			}

			return withWorkspace(cfg, func(ws *workspace.Workspace) error {
				if err := ws.ClearSession(cmd.Context()); err != nil {
					return err
				}
				ws.SetState(state)
				if err := ws.SaveSession(cmd.Context(), true); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{
						"case_number": state.Case.CaseNumber,
						"topics":      len(state.Topics),
					})
				}
				return writePlain("started case %s with %d topics\n", state.Case.CaseNumber, len(state.Topics))
			})
		},
	}

	newCmd.Flags().StringVar(&fromFile, "from", "", "case brief markdown file")
	newCmd.Flags().StringVar(&caseNumber, "number", "", "case number")
	newCmd.Flags().StringVar(&court, "court", "", "court")
	newCmd.Flags().StringVar(&claimant, "claimant", "", "claimant")
	newCmd.Flags().StringVar(&respondent, "respondent", "", "respondent")

	caseCmd.AddCommand(newCmd)
	return caseCmd
}

// parseCaseBrief extracts case metadata from YAML front matter and topic
// titles from markdown list items.
func parseCaseBrief(input string) (models.CaseInfo, []string, error) {
	var info models.CaseInfo
	content := input

	lines := strings.Split(input, "\n")
	if len(lines) >= 3 && strings.TrimSpace(lines[0]) == "---" {
		end := -1
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				end = i
				break
			}
		}
		if end == -1 {
			return info, nil, fmt.Errorf("front matter not closed")
		}
		frontText := strings.Join(lines[1:end], "\n")
		var front struct {
			CaseNumber    string `yaml:"case_number"`
			Court         string `yaml:"court"`
			Claimant      string `yaml:"claimant"`
			Respondent    string `yaml:"respondent"`
			ReporterNotes string `yaml:"reporter_notes"`
		}
		if err := yaml.Unmarshal([]byte(frontText), &front); err != nil {
			return info, nil, err
		}
		info.CaseNumber = front.CaseNumber
		info.Court = front.Court
		info.Claimant = front.Claimant
		info.Respondent = front.Respondent
		info.ReporterNotes = front.ReporterNotes
		content = strings.Join(lines[end+1:], "\n")
	}

	var topics []string
	for _, line := range strings.Split(content, "\n") {
		match := listItemRegex.FindStringSubmatch(line)
		if len(match) == 2 {
			item := strings.TrimSpace(match[1])
			if item != "" {
				topics = append(topics, item)
			}
		}
	}

	return info, topics, nil
}
