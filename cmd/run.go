package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamclass/examengine/internal/exam"
	"github.com/dreamclass/examengine/internal/quiz"
	"github.com/dreamclass/examengine/internal/store"
	"github.com/dreamclass/examengine/internal/sync"
)

// catalogMaxAge bounds how stale the cached remote catalog may be
// before a remote run forces a re-fetch.
const catalogMaxAge = time.Hour

var runCmd = &cobra.Command{
	Use:   "run <exam-config.json>",
	Short: "Run an exam from a config file",
	Long: "Run loads an exam config, serves its quiz sections from the local bank\n" +
		"(or the remote catalog with --remote) and walks through the exam\n" +
		"interactively. Type \"help\" at the prompt for the available commands.",
	Args: cobra.ExactArgs(1),
	RunE: runExam,
}

func init() {
	runCmd.Flags().Bool("remote", false, "Serve questions from the remote catalog instead of the local bank")
}

func runExam(cmd *cobra.Command, args []string) error {
	cfg, err := exam.LoadConfig(args[0])
	if err != nil {
		return err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	client := apiClientFromEnv()
	remote, _ := cmd.Flags().GetBool("remote")

	var (
		source  quiz.Source = st.Bank()
		catalog *quiz.Catalog
	)
	if !remote {
		// A bank that disagrees with the adopted snapshot is stale
		// (an earlier import failed partway); re-sync before trusting it.
		snap, err := st.Snapshots().LoadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		ok, err := st.Bank().MatchesSnapshot(cmd.Context(), snap)
		if err != nil {
			return err
		}
		if !ok {
			if client == nil {
				return errors.New("local bank does not match the last synced catalog; run \"examengine sync\"")
			}
			fmt.Println("Local bank is out of date, re-syncing...")
			if _, _, err := syncBank(cmd.Context(), client, st); err != nil {
				return err
			}
		}
	}
	if remote {
		if client == nil {
			return errors.New("--remote requires EXAMENGINE_API_URL")
		}
		engine := sync.NewEngine(client, st.Snapshots(), nil)
		cat, report, err := engine.Refresh(cmd.Context(), catalogMaxAge)
		if err != nil {
			return err
		}
		if report != nil && report.HasChanges() {
			fmt.Println(report.String())
		}
		catalog = cat
		source = quiz.NewCatalogSource(cat)
	}

	var submitter exam.ResultSubmitter
	if client != nil {
		submitter = exam.NewSubmitter(client, catalog,
			os.Getenv("EXAMENGINE_PLAYER_ID"), os.Getenv("EXAMENGINE_API_KEY"))
	}

	tracker := &promptTracker{}
	o := exam.New(source, tracker, submitter, nil)

	done := make(chan struct{})
	o.Events = exam.Events{
		Started: func() {
			fmt.Printf("Starting %s (%d minutes).\n", cfg.ExamName, cfg.DurationMinutes)
		},
		SectionChanged: func(i, n int) {
			sec := cfg.Sections[i]
			fmt.Printf("\n=== Section %d/%d: %s (%s) ===\n", i+1, n, sec.Name, sec.Type)
			if sec.Type == exam.SectionExperiment {
				fmt.Printf("Complete each step with \"step <id>\": %s\n",
					strings.Join(sec.RequiredStepIDs, ", "))
			}
		},
		QuestionChanged: func(i, n int) {
			printQuestion(o)
		},
		AnswerSubmitted: func(correct bool) {
			if correct {
				fmt.Println("Correct.")
			} else {
				fmt.Println("Wrong.")
			}
		},
		TimeUpdated: func(remaining time.Duration) {
			if remaining <= 10*time.Second || remaining%time.Minute == 0 {
				fmt.Printf("[time left: %s]\n", remaining)
			}
		},
		FinishRequested: func() {
			fmt.Println("\nFinishing exam...")
		},
		ResultReady: func(res *exam.Result) {
			fmt.Println()
			fmt.Println(res.Summary())
			close(done)
		},
	}

	if err := o.Start(cfg); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				o.Finish()
				<-done
				return nil
			}
			if err := dispatch(o, tracker, line); err != nil {
				fmt.Println(err)
			}
		}
	}
}

func dispatch(o *exam.Orchestrator, tracker *promptTracker, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		printQuestion(o)
		return nil
	}

	switch fields[0] {
	case "a", "answer":
		if len(fields) < 2 {
			return errors.New("usage: a <option letter or text>")
		}
		_, err := o.SubmitAnswer(strings.Join(fields[1:], " "))
		return err
	case "n", "next":
		return o.NextQuestion()
	case "p", "prev":
		return o.PrevQuestion()
	case "ns":
		return o.NextSection()
	case "ps":
		return o.PrevSection()
	case "step":
		if len(fields) != 2 {
			return errors.New("usage: step <step-id>")
		}
		tracker.complete(fields[1])
		fmt.Printf("Step %s done.\n", fields[1])
		return nil
	case "time":
		fmt.Printf("Time left: %s\n", o.Remaining())
		return nil
	case "score":
		fmt.Println(o.ScoreLabel())
		return nil
	case "f", "finish", "q", "quit":
		o.Finish()
		return nil
	case "h", "help":
		printHelp()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

func printQuestion(o *exam.Orchestrator) {
	q, i, n := o.CurrentQuestion()
	if q == nil {
		return
	}
	fmt.Printf("\nQuestion %d/%d\n%s\n", i+1, n, q.Text)
	for j, opt := range q.Options {
		fmt.Printf("  %c) %s\n", 'A'+j, opt)
	}
}

func printHelp() {
	fmt.Print(`Commands:
  a <answer>   answer the current question (letter or option text)
  n / p        next / previous question
  ns / ps      next / previous section
  step <id>    mark an experiment step completed
  time         show remaining time
  score        show the running score for this section
  f            finish the exam now
`)
}

// promptTracker runs experiment sections at the terminal: the operator
// confirms each step with the "step" command instead of an instrumented
// lab environment reporting them.
type promptTracker struct {
	steps  []string
	onStep func(stepID string, completed bool)
}

func (t *promptTracker) ExperimentName() string { return "interactive" }

func (t *promptTracker) Start(requiredSteps []string, onStep func(stepID string, completed bool)) error {
	t.steps = requiredSteps
	t.onStep = onStep
	return nil
}

func (t *promptTracker) Stop() {
	t.steps = nil
	t.onStep = nil
}

func (t *promptTracker) complete(stepID string) {
	if t.onStep != nil {
		t.onStep(stepID, true)
	}
}
