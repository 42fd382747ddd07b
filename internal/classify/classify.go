// Package classify assigns each update exactly one topic category using
// an ordered keyword-rule table. Earlier rules win ties, so an item that
// mentions both Lambda and Bedrock lands in Serverless.
package classify

import "strings"

// DefaultCategory is returned when no rule matches.
const DefaultCategory = "Other"

type rule struct {
	category string
	keywords []string
}

var rules = []rule{
	{"Serverless", []string{"lambda", "serverless", "api gateway", "apigateway", "eventbridge", "step functions", "sns", "sqs", "dynamodb streams"}},
	{"AI & GenAI", []string{"bedrock", "genai", "generative", "llm", "amazon q", "nova", "sagemaker", "claude", "titan", "prompt", "rag"}},
	{"AI Agents", []string{"agent", "agents", "agentic", "tool use", "function calling", "workflow"}},
	{"DevOps & Observability", []string{"cloudwatch", "x-ray", "opentelemetry", "observability", "grafana", "prometheus", "new relic", "datadog", "devops", "codepipeline", "codebuild", "codeartifact", "codecommit", "codedeploy"}},
	{"Containers & Kubernetes", []string{"eks", "kubernetes", "ecs", "fargate", "ecr", "container"}},
	{"Security", []string{"iam", "kms", "security", "guardduty", "inspector", "waf", "shield", "secrets manager"}},
	{"Data & Analytics", []string{"athena", "glue", "lake formation", "redshift", "emr", "kinesis", "msk", "quicksight", "data"}},
	{"Databases", []string{"rds", "aurora", "dynamodb", "documentdb", "neptune", "timestream", "keyspaces", "database"}},
	{"Storage", []string{"s3", "efs", "fsx", "storage", "backup"}},
	{"Networking", []string{"vpc", "route 53", "cloudfront", "elb", "alb", "nlb", "network", "gateway load balancer", "direct connect"}},
}

// Categories lists every label the classifier can produce, in rule
// priority order, with the default last.
func Categories() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, DefaultCategory)
}

// Category maps a title and its feed-supplied tags to one topic label.
// Total: every input yields exactly one category.
func Category(title string, rawCategories []string) string {
	haystack := strings.ToLower(title) + " " + strings.ToLower(strings.Join(rawCategories, " "))

	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(haystack, keyword) {
				return r.category
			}
		}
	}
	return DefaultCategory
}
