package metrics

import "github.com/prometheus/client_golang/prometheus"

// BlogMetrics counts domain events: comments, moderation, rate limiting,
// newsletter signups, CSP reports and translations.
type BlogMetrics struct {
	CommentsCreated     *prometheus.CounterVec
	CommentsModerated   *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
	NewsletterSignups   *prometheus.CounterVec
	CSPReports          *prometheus.CounterVec
	Translations        *prometheus.CounterVec
}

// NewBlogMetrics creates and registers domain metrics on the given registry.
func NewBlogMetrics(reg prometheus.Registerer) *BlogMetrics {
	m := &BlogMetrics{
		CommentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_created_total",
			Help:      "Total number of comments created, by initial status.",
		}, []string{"status"}),
		CommentsModerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_moderated_total",
			Help:      "Total number of moderation actions, by action.",
		}, []string{"action"}),
		RateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of requests rejected by a rate limiter.",
		}, []string{"limiter"}),
		NewsletterSignups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_signups_total",
			Help:      "Total number of newsletter subscription attempts, by result.",
		}, []string{"result"}),
		CSPReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csp_reports_total",
			Help:      "Total number of CSP violation reports, by result.",
		}, []string{"result"}),
		Translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Total number of translation lookups, by source.",
		}, []string{"source"}),
	}

	reg.MustRegister(m.CommentsCreated, m.CommentsModerated, m.RateLimitRejections,
		m.NewsletterSignups, m.CSPReports, m.Translations)
	return m
}
