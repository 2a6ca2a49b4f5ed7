package session

import (
	"context"
	"sync"

	"github.com/codepilot/codepilot/internal/event"
	"github.com/codepilot/codepilot/internal/message"
	"github.com/codepilot/codepilot/internal/permission"
	"github.com/codepilot/codepilot/internal/tool"
)

// executeTools runs the three-phase tool execution model over a batch of
// ToolUse blocks from one assistant turn:
//
//  1. Sequential permission check — resolves each call's Decision in
//     request order, prompting the user for any Unresolved verdict before
//     moving on, so prompts never race each other.
//  2. Concurrent execution — every Allowed call runs in its own goroutine;
//     Denied calls short-circuit without touching the tool.
//  3. Sequential re-ordering — results are collected into a slice indexed
//     by input position, so the ToolResult blocks sent back to the model
//     preserve the order the tool_use blocks were requested in, regardless
//     of which goroutine finished first.
func (l *Loop) executeTools(ctx context.Context, toolUses []message.ContentBlock) []message.ContentBlock {
	decisions := make([]permission.Decision, len(toolUses))
	for i, tu := range toolUses {
		l.Sink.OnToolUseStart(tu.Name, tu.ID, tu.Input)
		decisions[i] = l.decide(tu)
	}

	results := make([]message.ContentBlock, len(toolUses))
	var wg sync.WaitGroup
	for i, tu := range toolUses {
		if decisions[i] == permission.Denied {
			results[i] = message.NewToolResultBlock(tu.ID, "Permission denied by user.", true)
			l.Sink.OnToolResult(tu.Name, "Permission denied by user.", true)
			continue
		}

		wg.Add(1)
		go func(idx int, tu message.ContentBlock) {
			defer wg.Done()
			results[idx] = l.runTool(ctx, tu)
		}(i, tu)
	}
	wg.Wait()

	for _, tu := range toolUses {
		l.Sink.OnToolUseEnd(tu.Name)
	}
	return results
}

// decide resolves the permission Decision for one tool_use block,
// escalating to the interactive prompter when the engine cannot decide on
// its own. Tool names outside the permission engine's closed invocation
// tag set (currently only Fetch) cannot be classified at all and are
// denied immediately rather than ever reaching Unresolved.
func (l *Loop) decide(tu message.ContentBlock) permission.Decision {
	inv, ok := tool.ToInvocation(tu.Name, tu.Input, l.ProjectDir)
	if !ok {
		return permission.Denied
	}

	decision := permission.Check(l.Permissions, l.ProjectDir, inv)
	if decision != permission.Unresolved {
		return decision
	}

	if l.Prompter == nil {
		return permission.Denied
	}
	req := event.NewPermissionRequest(tu.Name, inv.MatchTarget)
	if l.Prompter.Prompt(req) {
		return permission.Allowed
	}
	return permission.Denied
}

func (l *Loop) runTool(ctx context.Context, tu message.ContentBlock) message.ContentBlock {
	l.Sink.OnToolExecuting(tu.Name, tu.Input)

	out := l.Registry.Execute(ctx, tu.Name, tu.Input, l.ProjectDir)
	l.Sink.OnToolResult(tu.Name, out.Content, out.IsError)
	return message.NewToolResultBlock(tu.ID, out.Content, out.IsError)
}
