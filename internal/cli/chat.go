package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/domain"
)

var resumeTask string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the companion in the terminal",
	Long: `Chat with the companion in the terminal. Tell it what you want to get
done; it answers with one tiny step and checks in if you go quiet.

Type /journal to see your wins, /quit to leave.`,
	RunE: runChatCmd,
}

func init() {
	chatCmd.Flags().StringVar(&resumeTask, "task", "", "Resume working on this task")
}

func runChatCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, _, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	c := newChat(cmd.OutOrStdout(), st.journalService())
	opts := sessionOptions(cfg)
	opts.ResumeTask = resumeTask
	opts.OnChange = c.onChange

	sess := session.New(gen, c.journal, opts)
	defer sess.Close()

	return c.run(ctx, sess, cmd.InOrStdin())
}

// chat renders a session as plain lines. Assistant and system messages are
// printed as they land in history, so check-ins show up between prompts.
type chat struct {
	out     io.Writer
	journal *journal.Service

	mu      sync.Mutex
	printed int
}

func newChat(out io.Writer, j *journal.Service) *chat {
	return &chat{out: out, journal: j}
}

func (c *chat) onChange(v domain.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Views can arrive out of order; an older, shorter one has nothing new.
	if len(v.Messages) <= c.printed {
		return
	}
	for _, m := range v.Messages[c.printed:] {
		switch m.Role {
		case domain.RoleAssistant:
			fmt.Fprintf(c.out, "onestep> %s\n", m.Content)
		case domain.RoleSystem:
			fmt.Fprintf(c.out, "  %s\n", m.Content)
		}
	}
	c.printed = len(v.Messages)
}

func (c *chat) println(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", a...)
}

func (c *chat) run(ctx context.Context, sess *session.Session, in io.Reader) error {
	if streak, err := c.journal.Touch(ctx, time.Now()); err == nil && streak > 1 {
		c.println("🔥 %d days in a row", streak)
	}
	if task := sess.Task(); task != "" {
		c.println("picking up where you left off: %s", task)
	} else {
		c.println("what do you want to get done? (/journal, /quit)")
	}

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handle(ctx, sess, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *chat) handle(ctx context.Context, sess *session.Session, line string) bool {
	switch line {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/journal":
		c.printJournal(ctx)
		return false
	}

	out, err := sess.Submit(ctx, line)
	if err != nil {
		if rej, ok := domain.IsRejection(err); ok {
			c.println("onestep> %s", rej.Message)
			return false
		}
		if errors.Is(err, domain.ErrSessionClosed) {
			return true
		}
		c.println("error: %v", err)
		return false
	}
	if out.JournalErr != nil {
		c.println("(couldn't save that win: %v)", out.JournalErr)
	}
	return false
}

func (c *chat) printJournal(ctx context.Context) {
	entries, err := c.journal.List(ctx)
	if err != nil {
		c.println("error: %v", err)
		return
	}
	if len(entries) == 0 {
		c.println("no wins yet. finish something and it lands here 💛")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	writeEntries(c.out, entries)
}
