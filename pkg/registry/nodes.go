package registry

import (
	"github.com/dukex/instaflow/pkg/nodes/keyword"
	"github.com/dukex/instaflow/pkg/nodes/replycomment"
	"github.com/dukex/instaflow/pkg/nodes/senddm"
	"github.com/dukex/instaflow/pkg/nodes/timefilter"
	"github.com/dukex/instaflow/pkg/nodes/trigger"
	"github.com/dukex/instaflow/pkg/nodes/userfilter"
	"github.com/dukex/instaflow/pkg/nodes/webhookcall"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	for _, factory := range trigger.Factories() {
		r.RegisterTrigger(factory)
	}

	r.RegisterCondition(keyword.NewKeywordFilterFactory())
	r.RegisterCondition(userfilter.NewUserFilterFactory())
	r.RegisterCondition(timefilter.NewTimeFilterFactory())

	r.RegisterAction(senddm.NewSendDMFactory())
	r.RegisterAction(replycomment.NewReplyCommentFactory())
	r.RegisterAction(webhookcall.NewWebhookCallFactory())
}
