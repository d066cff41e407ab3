/*
Package chatkit implements the client for the OpenAI ChatKit sessions API.

# Overview

The client builds authenticated session-creation requests, decodes
successful responses, and normalizes rejections into APIError values that
carry the upstream status, the decoded body, and a human-readable message
extracted from the several shapes ChatKit error payloads come in.

Transport concerns (retries, timeouts, circuit breaking) live in the
upstream package; this package only speaks the API's request and response
formats.

# Usage

	client := chatkit.New(chatkit.Config{
		BaseURL: "https://api.openai.com",
		APIKey:  key,
	}, transport)

	session, err := client.CreateSession(ctx, chatkit.SessionRequest{
		Workflow: chatkit.WorkflowParam{ID: "wf_123"},
		User:     "user-uuid",
	})
*/
package chatkit
