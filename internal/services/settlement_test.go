package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/samber/do"
)

func countTransactions(t *testing.T, container *do.Injector, userID int64) int {
	t.Helper()

	db := do.MustInvoke[*ServiceSettlement](container).postgresDB
	transactions, err := datastore.ListTransactionsByUser(context.Background(), db, userID, 1000)
	if err != nil {
		t.Fatal(err)
	}
	return len(transactions)
}

func TestSettleSpinFree(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "spinner@example.com", nil)

	result, err := settlement.SettleSpin(context.Background(), user, models.SPIN_TYPE_FREE)
	if err != nil {
		t.Fatalf("SettleSpin: %v", err)
	}

	if result.Reward != 42 {
		t.Errorf("reward = %v, want 42", result.Reward)
	}
	if result.NewBalance != 42 {
		t.Errorf("new balance = %v, want 42", result.NewBalance)
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.Balance != 42 || wallet.TotalEarnings != 42 {
		t.Errorf("wallet = %+v, want balance and total_earnings 42", wallet)
	}
	if got := countTransactions(t, container, user.ID); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}
}

func TestSettleSpinFreeDailyLimit(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "spinner@example.com", nil)
	ctx := context.Background()

	for i := 0; i < FREE_SPIN_DAILY_LIMIT; i++ {
		if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_FREE); err != nil {
			t.Fatalf("spin %d: %v", i+1, err)
		}
	}

	if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_FREE); err == nil {
		t.Fatal("6th free spin should be denied")
	}

	if got := countTransactions(t, container, user.ID); got != FREE_SPIN_DAILY_LIMIT {
		t.Errorf("transactions = %d, want %d", got, FREE_SPIN_DAILY_LIMIT)
	}
}

func TestSettleSpinPaid(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "spinner@example.com", nil)
	ctx := context.Background()

	setSpinPoints(t, db, user.ID, PAID_SPIN_COST-1)
	if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_PAID); err == nil {
		t.Fatal("paid spin with 9 points should be denied")
	}
	if got := countTransactions(t, container, user.ID); got != 0 {
		t.Errorf("denied spin wrote %d transactions", got)
	}

	setSpinPoints(t, db, user.ID, PAID_SPIN_COST)
	result, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_PAID)
	if err != nil {
		t.Fatalf("SettleSpin paid: %v", err)
	}
	if result.Reward != 42 {
		t.Errorf("reward = %v, want 42", result.Reward)
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.SpinPoints != 0 {
		t.Errorf("spin points = %d, want 0", wallet.SpinPoints)
	}
	if wallet.Balance != 42 {
		t.Errorf("balance = %v, want 42", wallet.Balance)
	}
}

func TestSettleSpinConcurrentNoLostUpdates(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, NewSeededRandom(3))
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "spinner@example.com", nil)
	ctx := context.Background()

	const spins = 10
	setSpinPoints(t, db, user.ID, spins*PAID_SPIN_COST)

	var wg sync.WaitGroup
	for i := 0; i < spins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_PAID); err != nil {
				t.Errorf("SettleSpin: %v", err)
			}
		}()
	}
	wg.Wait()

	wallet := mustWallet(t, db, user.ID)
	if wallet.SpinPoints != 0 {
		t.Errorf("spin points = %d, want 0", wallet.SpinPoints)
	}

	sum, err := datastore.SumTransactionAmounts(ctx, db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if wallet.Balance != sum {
		t.Errorf("balance %v diverged from ledger sum %v", wallet.Balance, sum)
	}
}

func TestSettleSpinWalletMissing(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)

	// user row without a wallet: account integrity violation
	user := &models.User{Email: "broken@example.com", ReferralCode: "broken", CreatedAt: time.Now()}
	if err := datastore.CreateUser(context.Background(), db, user); err != nil {
		t.Fatal(err)
	}

	if _, err := settlement.SettleSpin(context.Background(), user, models.SPIN_TYPE_FREE); err == nil {
		t.Fatal("settlement without a wallet should fail")
	}
}

func TestSettleQuiz(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "quizzer@example.com", nil)
	ctx := context.Background()

	questions := []*models.QuizQuestion{
		{Question: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a", Difficulty: models.DIFFICULTY_EASY, IsActive: true},
		{Question: "q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Difficulty: models.DIFFICULTY_EASY, IsActive: true},
		{Question: "q3", Options: []string{"a", "b"}, CorrectAnswer: "a", Difficulty: models.DIFFICULTY_HARD, IsActive: true},
	}
	for _, question := range questions {
		if err := datastore.InsertQuizQuestion(ctx, db, question); err != nil {
			t.Fatal(err)
		}
	}

	answers := []models.QuizAnswer{
		{QuestionID: questions[0].ID, Answer: "a"}, // correct
		{QuestionID: questions[1].ID, Answer: "a"}, // wrong
		{QuestionID: questions[2].ID, Answer: "a"}, // correct
		{QuestionID: 9999, Answer: "a"},            // unknown id, skipped
	}

	result, err := settlement.SettleQuiz(ctx, user, answers)
	if err != nil {
		t.Fatalf("SettleQuiz: %v", err)
	}

	if result.CorrectAnswers != 2 {
		t.Errorf("correct = %d, want 2", result.CorrectAnswers)
	}
	if result.Reward != 10 {
		t.Errorf("reward = %v, want 10", result.Reward)
	}
	if result.Score != 50 {
		t.Errorf("score = %d, want 50", result.Score)
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.Balance != 10 {
		t.Errorf("balance = %v, want 10", wallet.Balance)
	}
}

func TestSettleQuizEmptySubmission(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "quizzer@example.com", nil)

	if _, err := settlement.SettleQuiz(context.Background(), user, nil); err == nil {
		t.Fatal("empty submission should be denied")
	}
}

func TestSettleNumberGame(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41}) // house draws 42
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "guesser@example.com", nil)
	ctx := context.Background()

	loss, err := settlement.SettleNumberGame(ctx, user, 10)
	if err != nil {
		t.Fatalf("SettleNumberGame: %v", err)
	}
	if loss.Won || loss.Reward != 0 {
		t.Errorf("loss = %+v, want no reward", loss)
	}
	if loss.CorrectNumber != 42 {
		t.Errorf("correct number = %d, want 42", loss.CorrectNumber)
	}
	// losses leave no ledger entry
	if got := countTransactions(t, container, user.ID); got != 0 {
		t.Errorf("transactions after loss = %d, want 0", got)
	}

	win, err := settlement.SettleNumberGame(ctx, user, 42)
	if err != nil {
		t.Fatalf("SettleNumberGame: %v", err)
	}
	if !win.Won || win.Reward != NUMBER_GAME_REWARD {
		t.Errorf("win = %+v, want reward %d", win, NUMBER_GAME_REWARD)
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.Balance != NUMBER_GAME_REWARD {
		t.Errorf("balance = %v, want %d", wallet.Balance, NUMBER_GAME_REWARD)
	}

	attempts, err := settlement.ListNumberGameAttempts(ctx, user.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
}

func TestSettleVideoClaimExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "viewer@example.com", nil)
	ctx := context.Background()

	video := &models.Video{Title: "intro", VideoURL: "https://example.com/v/1", RewardPoints: 5, IsActive: true, CreatedAt: time.Now()}
	if err := datastore.InsertVideo(ctx, db, video); err != nil {
		t.Fatal(err)
	}

	const claims = 5
	var wg sync.WaitGroup
	results := make([]error, claims)
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = settlement.SettleVideoClaim(ctx, user, video.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("claims succeeded = %d, want exactly 1", succeeded)
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.Balance != 5 {
		t.Errorf("balance = %v, want 5", wallet.Balance)
	}
	if got := countTransactions(t, container, user.ID); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}
}

func TestSettleDepositIdempotent(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "payer@example.com", nil)
	ctx := context.Background()

	deposit := &models.Deposit{
		UserID:            user.ID,
		Amount:            250,
		Phone:             "254712345678",
		CheckoutRequestID: "ws_CO_1",
		Status:            models.DEPOSIT_PENDING,
		CreatedAt:         time.Now(),
	}
	if err := datastore.InsertDeposit(ctx, db, deposit); err != nil {
		t.Fatal(err)
	}

	result, err := settlement.SettleDeposit(ctx, user.ID, "ws_CO_1")
	if err != nil {
		t.Fatalf("SettleDeposit: %v", err)
	}
	if result.NewBalance != 250 {
		t.Errorf("balance = %v, want 250", result.NewBalance)
	}

	// callback replays must not credit twice
	if _, err := settlement.SettleDeposit(ctx, user.ID, "ws_CO_1"); err == nil {
		t.Fatal("replayed settlement should fail")
	}
	if got := mustWallet(t, db, user.ID).Balance; got != 250 {
		t.Errorf("balance after replay = %v, want 250", got)
	}

	// deposits are purchases, not earnings
	if got := mustWallet(t, db, user.ID).TotalEarnings; got != 0 {
		t.Errorf("total earnings = %v, want 0", got)
	}
}

func TestSettleDepositUnknownCheckout(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "payer@example.com", nil)

	if _, err := settlement.SettleDeposit(context.Background(), user.ID, "ws_CO_missing"); err == nil {
		t.Fatal("unknown checkout should fail")
	}
}

func TestReconcileAfterMixedSettlements(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, NewSeededRandom(5))
	settlement := do.MustInvoke[*ServiceSettlement](container)
	wallet := do.MustInvoke[*ServiceWallet](container)
	user := createTestUser(t, db, "mixed@example.com", nil)
	ctx := context.Background()

	setSpinPoints(t, db, user.ID, 3*PAID_SPIN_COST)
	for i := 0; i < 3; i++ {
		if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_PAID); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_FREE); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := settlement.SettleNumberGame(ctx, user, 50); err != nil {
		t.Fatal(err)
	}

	drift, err := wallet.Reconcile(ctx, user.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if drift != 0 {
		t.Errorf("drift = %v, want 0", drift)
	}
}

func TestSettleSpinRollsBackOnPersistenceFailure(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "rollback@example.com", nil)
	ctx := context.Background()

	// the history insert is the last write in the sequence; dropping its
	// table forces it to fail after the wallet credit has been issued
	if _, err := db.NewDropTable().Model((*models.SpinHistory)(nil)).Exec(ctx); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	if _, err := settlement.SettleSpin(ctx, user, models.SPIN_TYPE_FREE); err == nil {
		t.Fatal("expected settlement to fail")
	}

	wallet := mustWallet(t, db, user.ID)
	if wallet.Balance != 0 || wallet.TotalEarnings != 0 {
		t.Errorf("wallet = balance %v earnings %v, want both 0", wallet.Balance, wallet.TotalEarnings)
	}
	if got := countTransactions(t, container, user.ID); got != 0 {
		t.Errorf("transactions = %d, want 0", got)
	}
}
