// Package automator ties a browser session and a provider adapter together
// into a ready-to-use chat session.
//
// New performs the whole setup synchronously: it starts the browser,
// restores a saved session when one exists, checks whether the provider
// page is signed in and logs in otherwise. A returned *Automator is always
// authenticated; any setup failure releases the browser and returns an
// error instead.
//
//	a, err := automator.New(ctx, automator.Options{
//		Provider:    "chatgpt",
//		SessionPath: "chatgpt-session.json",
//	})
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	responses, err := a.ProcessChain(ctx, chain.Parse([]string{
//		"Name a prime number",
//		"Double {{previous}}",
//	}))
package automator
