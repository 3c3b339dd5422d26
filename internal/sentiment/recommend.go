package sentiment

import "github.com/sentinelai/sentinel-alerts/internal/models"

// FallbackRecommendation is returned for labels without a dedicated template
const FallbackRecommendation = "Thank you for your feedback. We value your input and will review this."

var recommendations = map[models.Sentiment]string{
	models.SentimentNegative: "Apologize sincerely, offer immediate resolution (e.g., refund/replacement), and escalate to support team.",
	models.SentimentNeutral:  "Acknowledge feedback, ask for more details, and share how we're improving.",
	models.SentimentPositive: "Thank the customer, encourage sharing more, and offer loyalty perks.",
}

// Recommend returns the canned response template for a sentiment label
func Recommend(s models.Sentiment) string {
	if text, ok := recommendations[s]; ok {
		return text
	}
	return FallbackRecommendation
}
