package services

import (
	"context"
	"testing"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/samber/do"
)

func seedQuestions(t *testing.T, container *do.Injector, counts map[string]int) {
	t.Helper()

	db := do.MustInvoke[*ServiceQuiz](container).postgresDB
	ctx := context.Background()
	for difficulty, count := range counts {
		for j := 0; j < count; j++ {
			err := datastore.InsertQuizQuestion(ctx, db, &models.QuizQuestion{
				Question:      "question",
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: "a",
				Difficulty:    difficulty,
				IsActive:      true,
			})
			if err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestGetQuestionsCountAndUniqueness(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	quiz := do.MustInvoke[*ServiceQuiz](container)
	seedQuestions(t, container, map[string]int{
		models.DIFFICULTY_EASY:   10,
		models.DIFFICULTY_MEDIUM: 10,
		models.DIFFICULTY_HARD:   10,
	})

	questions, err := quiz.GetQuestions(context.Background(), QUIZ_QUESTIONS_PER_ROUND)
	if err != nil {
		t.Fatalf("GetQuestions: %v", err)
	}
	if len(questions) != QUIZ_QUESTIONS_PER_ROUND {
		t.Fatalf("questions = %d, want %d", len(questions), QUIZ_QUESTIONS_PER_ROUND)
	}

	seen := map[int64]bool{}
	for _, question := range questions {
		if seen[question.ID] {
			t.Errorf("question %d drawn twice", question.ID)
		}
		seen[question.ID] = true
		if question.CorrectAnswer == "" {
			// the answer key never leaves the service through JSON, but it
			// must be present internally for settlement
			t.Error("correct answer missing")
		}
	}
}

func TestGetQuestionsFewerThanRequested(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	quiz := do.MustInvoke[*ServiceQuiz](container)
	seedQuestions(t, container, map[string]int{models.DIFFICULTY_EASY: 3})

	questions, err := quiz.GetQuestions(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetQuestions: %v", err)
	}
	if len(questions) != 3 {
		t.Errorf("questions = %d, want all 3 available", len(questions))
	}
}

func TestGetQuestionsEmptyPool(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	quiz := do.MustInvoke[*ServiceQuiz](container)

	if _, err := quiz.GetQuestions(context.Background(), 10); err == nil {
		t.Fatal("empty pool should error")
	}
}

func TestGetCorrectAnswer(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	quiz := do.MustInvoke[*ServiceQuiz](container)
	ctx := context.Background()

	question := &models.QuizQuestion{
		Question:      "capital of Kenya",
		Options:       []string{"Nairobi", "Mombasa"},
		CorrectAnswer: "Nairobi",
		Difficulty:    models.DIFFICULTY_EASY,
		IsActive:      true,
	}
	if err := datastore.InsertQuizQuestion(ctx, db, question); err != nil {
		t.Fatal(err)
	}

	answer, err := quiz.GetCorrectAnswer(ctx, question.ID)
	if err != nil {
		t.Fatalf("GetCorrectAnswer: %v", err)
	}
	if answer != "Nairobi" {
		t.Errorf("answer = %q", answer)
	}

	if _, err := quiz.GetCorrectAnswer(ctx, 9999); err == nil {
		t.Fatal("unknown question should error")
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	quiz := do.MustInvoke[*ServiceQuiz](container)
	ctx := context.Background()

	if err := quiz.CreateQuestion(ctx, &models.QuizQuestion{Question: "", CorrectAnswer: "a", Options: []string{"a", "b"}}); err == nil {
		t.Error("empty question should be rejected")
	}
	if err := quiz.CreateQuestion(ctx, &models.QuizQuestion{Question: "q", CorrectAnswer: "a", Options: []string{"a"}}); err == nil {
		t.Error("single option should be rejected")
	}
	if err := quiz.CreateQuestion(ctx, &models.QuizQuestion{Question: "q", CorrectAnswer: "z", Options: []string{"a", "b"}}); err == nil {
		t.Error("answer outside options should be rejected")
	}

	valid := &models.QuizQuestion{Question: "q", CorrectAnswer: "a", Options: []string{"a", "b"}, Difficulty: "bogus"}
	if err := quiz.CreateQuestion(ctx, valid); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if valid.Difficulty != models.DIFFICULTY_EASY {
		t.Errorf("unknown difficulty should default to easy, got %q", valid.Difficulty)
	}
}
