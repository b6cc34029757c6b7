// Package schedule answers "is this job due at t?".
//
// Expressions are standard crontab strings parsed by robfig/cron. Both the
// 5-field form (minute precision) and the 6-field form with a leading seconds
// field (second precision) are accepted, as are the @hourly/@daily/... descriptors.
// @every descriptors are rejected: a fixed delay has no notion of being due at
// a wall-clock instant.
//
// A Schedule may carry a year filter which is checked before the expression.
package schedule
