package privacy

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

// BudgetManager tracks epsilon consumption against a global privacy budget
// under basic composition: spent epsilons add up, and a query that would push
// the total past the budget is refused before any noise is drawn.
type BudgetManager struct {
	total  float64
	spent  float64
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewBudgetManager creates a budget manager with the given global epsilon.
func NewBudgetManager(total float64, logger *logrus.Logger) (*BudgetManager, error) {
	if total <= 0 {
		return nil, errors.WrapError(errors.ErrInvalidEpsilon,
			errors.ErrorTypePrivacy, errors.CodeInvalidEpsilon,
			fmt.Sprintf("global budget %f", total))
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &BudgetManager{total: total, logger: logger}, nil
}

// Spend reserves epsilon from the budget, failing when it would overdraw.
func (bm *BudgetManager) Spend(epsilon float64) error {
	if epsilon <= 0 {
		return errors.WrapError(errors.ErrInvalidEpsilon,
			errors.ErrorTypePrivacy, errors.CodeInvalidEpsilon,
			fmt.Sprintf("epsilon=%f", epsilon))
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.spent+epsilon > bm.total {
		return errors.WrapError(errors.ErrPrivacyBudgetExceeded,
			errors.ErrorTypePrivacy, errors.CodePrivacyBudgetExceeded,
			fmt.Sprintf("spent=%f requested=%f budget=%f", bm.spent, epsilon, bm.total))
	}

	bm.spent += epsilon
	bm.logger.WithFields(logrus.Fields{
		"epsilon":   epsilon,
		"spent":     bm.spent,
		"remaining": bm.total - bm.spent,
	}).Debug("Privacy budget spent")

	return nil
}

// Remaining returns the unspent budget.
func (bm *BudgetManager) Remaining() float64 {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.total - bm.spent
}

// Spent returns the consumed budget.
func (bm *BudgetManager) Spent() float64 {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.spent
}
