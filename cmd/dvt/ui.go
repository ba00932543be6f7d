package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"devtycoon/internal/econ"
	"devtycoon/internal/store"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(string(raw))
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func renderState(st econ.State) {
	accent.Println("\n== STUDIO ==")
	fmt.Printf("Money:      %s\n", formatMoney(st.Money))
	fmt.Printf("Fans:       %s\n", comma(st.Fans))
	fmt.Printf("Reputation: %d/10\n", st.Reputation)
	fmt.Printf("Employees:  %d\n", st.Employees)

	fmt.Println()
	accent.Println("Projects")
	if len(st.Projects) == 0 {
		printInfo("No projects in development.")
	} else {
		fmt.Printf("%-24s %10s %8s %8s\n", "NAME", "PROGRESS", "BUGS", "SEED")
		for _, p := range st.Projects {
			progress := fmt.Sprintf("%d%%", p.Progress)
			if p.Progress >= econ.ReleasableProgress {
				progress = success.Sprint(progress)
			}
			fmt.Printf("%-24s %10s %8d %8d\n", truncate(p.Name, 24), progress, p.Bugs, p.Quality)
		}
	}

	fmt.Println()
	accent.Println("Released")
	if len(st.Released) == 0 {
		printInfo("Nothing shipped yet.")
	} else {
		fmt.Printf("%-24s %8s %14s\n", "NAME", "QUALITY", "REVENUE/TICK")
		for _, rel := range st.Released {
			fmt.Printf("%-24s %8d %14s\n", truncate(rel.Name, 24), rel.Quality, formatMoney(rel.BaseRevenue))
		}
	}
	fmt.Println()
}

func renderOutcome(out econ.Outcome, st econ.State) {
	if !out.Applied {
		switch out.Reason {
		case econ.RejectInsufficientFunds:
			printWarn("Not enough money.")
		case econ.RejectNotEligible:
			printWarn("Nothing eligible for that action right now.")
		default:
			printWarn("Action rejected.")
		}
		return
	}
	if out.Released != nil {
		printSuccess(fmt.Sprintf("Shipped %s: quality %d/10, revenue %s per tick.",
			out.Released.Name, out.Released.Quality, formatMoney(out.Released.BaseRevenue)))
	} else {
		printSuccess("Done.")
	}
	fmt.Printf("Money: %s  Fans: %s  Employees: %d\n", formatMoney(st.Money), comma(st.Fans), st.Employees)
}

func renderLeaderboard(rows []store.LeaderboardRow) {
	accent.Println("\n== LEADERBOARD ==")
	if len(rows) == 0 {
		printInfo("No players ranked yet.")
		return
	}
	fmt.Printf("%-6s %-20s %14s\n", "RANK", "PLAYER", "MONEY")
	for _, row := range rows {
		fmt.Printf("%-6d %-20s %14s\n", row.Rank, truncate(row.Name, 20), formatMoney(row.Money))
	}
	fmt.Println()
}

func formatMoney(v int64) string {
	if v < 0 {
		return "-$" + comma(-v)
	}
	return "$" + comma(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
