package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	timeLayout   = "2006-01-02 15:04:05"
)

var resultHeaders = []string{
	"User ID", "Username", "Name", "Course", "Attempt", "Status",
	"Started At", "Ended At", "Marks", "Percent", "Result",
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportAnswerPapers writes every attempt at the quiz as an xlsx workbook.
func (s *exportService) ExportAnswerPapers(ctx context.Context, quizID, userID uint, w io.Writer) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatorID != userID {
		return NewPermissionError(userID, quizID, "quiz", "export_results", "not the quiz creator")
	}

	papers, err := s.repo.AnswerPaper().ListByQuiz(ctx, nil, quizID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, header := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(resultsSheet, cell, header)
	}

	for rowIndex, paper := range papers {
		var username, name, course string
		if paper.User != nil {
			username = paper.User.Username
			name = paper.User.FirstName + " " + paper.User.LastName
		}
		if paper.Course != nil {
			course = paper.Course.Name
		}
		ended := ""
		if paper.EndTime != nil {
			ended = paper.EndTime.Format(timeLayout)
		}
		result := "Fail"
		if paper.Passed {
			result = "Pass"
		}

		row := []interface{}{
			paper.UserID, username, name, course, paper.AttemptNumber, string(paper.Status),
			paper.StartTime.Format(timeLayout), ended, paper.MarksObtained, paper.Percent, result,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIndex+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	s.logger.Info("Exported answer papers", "quiz_id", quizID, "rows", len(papers))
	return nil
}
