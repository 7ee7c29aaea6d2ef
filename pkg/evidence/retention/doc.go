// Package retention deletes evidence records that fall outside the
// configured age or count limits, either on demand or on a cron schedule.
package retention
