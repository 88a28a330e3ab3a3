package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

const sendTimeout = 10 * time.Second

// job is one independent send: a channel, a recipient and pre-composed
// content, with enough context to audit a failure.
type job struct {
	channel       Channel
	recipient     string
	msg           Message
	accountID     string
	transactionID string
}

// Dispatcher fans a committed transfer out into up to four independent sends
// (sender and receiver, email and SMS). Jobs go through a bounded queue to a
// worker pool; when the queue is full the job is dropped and logged, never
// blocking the transfer path.
type Dispatcher struct {
	email Channel // nil disables the channel
	sms   Channel

	queue chan job
	wg    sync.WaitGroup
	once  sync.Once
	log   *zap.Logger
}

func NewDispatcher(email, sms Channel, queueSize, workers int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	d := &Dispatcher{
		email: email,
		sms:   sms,
		queue: make(chan job, queueSize),
		log:   log,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Stop closes the queue and waits for the workers to finish what they have
// already picked up. Delivery is at-most-once; anything still queued at
// process exit is allowed to be lost.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// TransferCompleted enqueues notifications for both parties of a committed
// transfer. It never blocks and never returns an error: the ledger is already
// durable and must not care.
func (d *Dispatcher) TransferCompleted(res *ledger.TransferResult) {
	for _, p := range partiesOf(res) {
		if d.email != nil {
			if p.account.OwnerEmail == "" {
				d.log.Debug("no email registered, skipping",
					zap.String("account_id", p.account.ID.String()),
					zap.String("transaction_id", res.Transaction.ID.String()))
			} else {
				d.enqueue(job{
					channel:       d.email,
					recipient:     p.account.OwnerEmail,
					msg:           composeEmail(res, p),
					accountID:     p.account.ID.String(),
					transactionID: res.Transaction.ID.String(),
				})
			}
		}

		if d.sms != nil {
			switch {
			case p.account.OwnerPhone == "":
				d.log.Debug("no phone registered, skipping",
					zap.String("account_id", p.account.ID.String()),
					zap.String("transaction_id", res.Transaction.ID.String()))
			case !ValidPhone(p.account.OwnerPhone):
				d.log.Warn("invalid phone number, skipping SMS",
					zap.String("account_id", p.account.ID.String()),
					zap.String("transaction_id", res.Transaction.ID.String()))
			default:
				d.enqueue(job{
					channel:       d.sms,
					recipient:     p.account.OwnerPhone,
					msg:           composeSMS(res, p),
					accountID:     p.account.ID.String(),
					transactionID: res.Transaction.ID.String(),
				})
			}
		}
	}
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.queue <- j:
	default:
		d.log.Warn("notification queue full, dropping job",
			zap.String("channel", j.channel.Name()),
			zap.String("account_id", j.accountID),
			zap.String("transaction_id", j.transactionID))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := j.channel.Send(ctx, j.recipient, j.msg)
		cancel()

		if err != nil {
			// Logged with enough context to replay manually; no automatic
			// retry, no effect on the ledger.
			d.log.Error("notification send failed",
				zap.String("channel", j.channel.Name()),
				zap.String("account_id", j.accountID),
				zap.String("transaction_id", j.transactionID),
				zap.Error(err))
			continue
		}
		d.log.Info("notification sent",
			zap.String("channel", j.channel.Name()),
			zap.String("account_id", j.accountID),
			zap.String("transaction_id", j.transactionID))
	}
}
