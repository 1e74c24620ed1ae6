package middleware

import tele "gopkg.in/telebot.v4"

// OperatorOptions defines how operator-only checks behave.
type OperatorOptions struct {
	// Operators lists user IDs allowed through the check.
	Operators []int64
	OnReject  tele.HandlerFunc
}

// IsOperator reports whether the user ID belongs to a configured operator.
func (o OperatorOptions) IsOperator(userID int64) bool {
	for _, id := range o.Operators {
		if id == userID {
			return true
		}
	}
	return false
}

// OperatorOnlyMiddleware ensures that only configured operators reach downstream handlers.
// With an empty operator list everything is rejected, so a misconfigured bot
// fails closed rather than opening catalogue mutations to everyone.
func OperatorOnlyMiddleware(opts OperatorOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.IsOperator(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
