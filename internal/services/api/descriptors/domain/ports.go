package domain

import "context"

// ServicePort is consumed by handlers
type ServicePort interface {
	Classify(ctx context.Context, in ClassifyInput) (ClassifyOutput, error)
	Inspect(ctx context.Context, in InspectInput) (InspectOutput, error)
	Check(ctx context.Context, in CheckInput) (CheckOutput, error)
}
