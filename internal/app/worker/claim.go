package worker

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/chain"
)

const (
	claimMissionSelector   = "0xdc7d41f6"
	claimChatScoreSelector = "0x31bf7fe8"
	walletTypeBybit        = 1
)

var rewardContract = common.HexToAddress("0x7bb85350e3a883A1708648AB7e37cEf4651cFd48")

// claimMission claims a completed mission on chain and reports the tx hash.
// A report failure after a mined claim leaves the task claimable server side.
func (w *XterioWorker) claimMission(ctx context.Context, taskID int) error {
	data, err := chain.EncodeCall(claimMissionSelector, big.NewInt(int64(taskID)), big.NewInt(walletTypeBybit))
	if err != nil {
		return err
	}

	w.log.Log(fmt.Sprintf("Claiming mission %d on chain", taskID))
	hash, err := w.xterio.SendCall(ctx, rewardContract, data, nil)
	if err != nil {
		w.session.ClaimsFailed++
		return fmt.Errorf("claim mission %d: %w", taskID, err)
	}
	w.log.Log(fmt.Sprintf("Successfully claimed AI mission: %d", taskID))

	txHash := hash.Hex()
	w.recordClaim(taskID, txHash)

	if err := w.gateway.ReportClaim(ctx, taskID, txHash); err != nil {
		w.session.ClaimsFailed++
		return fmt.Errorf("report claim %d (%s): %w", taskID, txHash, err)
	}
	if w.ledger != nil {
		if err := w.ledger.MarkClaimReported(txHash); err != nil {
			w.log.Log(fmt.Sprintf("Warning: failed to mark claim reported: %v", err))
		}
	}
	w.session.ClaimsDone++
	return nil
}

func (w *XterioWorker) recordClaim(taskID int, txHash string) {
	if w.ledger == nil {
		return
	}
	if err := w.ledger.RecordClaim(w.runID, w.session.Address, taskID, txHash, w.now()); err != nil {
		w.log.Log(fmt.Sprintf("Warning: failed to record claim: %v", err))
	}
}

// claimChatScore is a no-op once the server reports the score as claimed.
func (w *XterioWorker) claimChatScore(ctx context.Context) error {
	status, err := w.gateway.ChatStatus(ctx)
	if err != nil {
		return err
	}
	if status.Claimed() {
		w.log.Log("Already claimed chat score")
		return nil
	}

	data, err := chain.EncodeCall(claimChatScoreSelector, big.NewInt(walletTypeBybit))
	if err != nil {
		return err
	}
	if _, err := w.xterio.SendCall(ctx, rewardContract, data, nil); err != nil {
		w.session.ClaimsFailed++
		return fmt.Errorf("claim chat score: %w", err)
	}
	w.session.ClaimsDone++
	w.log.Log("Successfully claimed chat score")
	return nil
}
