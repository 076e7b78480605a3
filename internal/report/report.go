// Package report exports a user's quiz history as XLSX or CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/store"
)

// Formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const (
	sheetSessions   = "Sessions"
	sheetCategories = "Categories"
	sheetSummary    = "Summary"
)

// Data is everything an export contains.
type Data struct {
	UserID      string
	Stats       quiz.UserStats
	Categories  []quiz.UserPerformance
	Sessions    []store.Session
	GeneratedAt time.Time
}

var sessionHeaders = []string{
	"Started", "Subject", "Difficulty", "Source", "Status",
	"Correct", "Total", "Accuracy %", "Points", "Time Bonus", "Final Score", "Grade", "XP", "Seconds",
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns the download name of an export.
func Filename(userID, format string, at time.Time) string {
	return fmt.Sprintf("quizforge_%s_%s.%s", sanitizeName(userID), at.Format("2006-01-02"), format)
}

// Write renders d in format to w.
func Write(w io.Writer, format string, d Data) error {
	switch format {
	case FormatXLSX, "":
		return WriteXLSX(w, d)
	case FormatCSV:
		return WriteCSV(w, d)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteXLSX writes a workbook with a session sheet, a category sheet, and
// a summary sheet.
func WriteXLSX(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSessions); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetSessions)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", toRow(sessionHeaders)); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, s := range d.Sessions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, sessionRow(s)); err != nil {
			return fmt.Errorf("write session row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sessions: %w", err)
	}

	if _, err := f.NewSheet(sheetCategories); err != nil {
		return err
	}
	header := []any{"Category", "Correct", "Total", "Accuracy %", "Avg Seconds", "Level", "Last Attempt"}
	if err := f.SetSheetRow(sheetCategories, "A1", &header); err != nil {
		return err
	}
	for i, p := range d.Categories {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			sanitize(p.Category), p.CorrectAnswers, p.TotalAnswers, int(p.Accuracy() * 100),
			round1(p.AverageTimeSeconds), p.Tier.DisplayName(), formatTime(p.LastAttempt),
		}
		if err := f.SetSheetRow(sheetCategories, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	for i, kv := range summaryRows(d) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := []any{kv[0], kv[1]}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the session rows only.
func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sessionHeaders); err != nil {
		return err
	}
	for _, s := range d.Sessions {
		row := sessionRow(s)
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = fmt.Sprint(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sessionRow(s store.Session) []any {
	row := []any{
		formatTime(s.StartedAt), sanitize(s.Subject), s.Tier.DisplayName(), s.Source, string(s.Status),
	}
	if s.Result == nil {
		return append(row, 0, len(s.Questions), 0, 0, 0, 0, "", s.XPEarned, 0)
	}
	r := s.Result
	return append(row,
		r.CorrectCount, r.TotalCount, r.AccuracyPercent, r.PointsAwarded, r.TimeBonus,
		r.FinalScore, r.Grade, s.XPEarned, r.TimeSpentSeconds)
}

func summaryRows(d Data) [][2]any {
	accuracy := 0
	if d.Stats.TotalQuestions > 0 {
		accuracy = d.Stats.TotalCorrect * 100 / d.Stats.TotalQuestions
	}
	return [][2]any{
		{"User", sanitize(d.UserID)},
		{"Generated", formatTime(d.GeneratedAt)},
		{"Total XP", d.Stats.TotalXP},
		{"Level", d.Stats.Level},
		{"Quiz Streak", d.Stats.QuizStreak},
		{"Quizzes Completed", d.Stats.TotalQuizzes},
		{"Correct Answers", d.Stats.TotalCorrect},
		{"Questions Answered", d.Stats.TotalQuestions},
		{"Accuracy %", accuracy},
		{"Achievements", strings.Join(d.Stats.Achievements, ", ")},
	}
}

func toRow(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}

// sanitize stops spreadsheet apps from evaluating user-supplied text as a
// formula.
func sanitize(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
