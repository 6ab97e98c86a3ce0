package app

import (
	"context"
	"net/http"

	"github.com/graphql-go/graphql"

	"folio/api/internal/search"
	"folio/api/internal/store"
)

type ctxKey int

const viewerKey ctxKey = iota

// WithViewer attaches an authenticated session to a request context.
func WithViewer(ctx context.Context, viewer Session) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

func viewerFrom(ctx context.Context) (Session, bool) {
	viewer, ok := ctx.Value(viewerKey).(Session)
	return viewer, ok
}

func requireViewer(p graphql.ResolveParams) (Session, error) {
	viewer, ok := viewerFrom(p.Context)
	if !ok {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.", nil)
	}
	return viewer, nil
}

// newSchema builds the GraphQL schema over the service. Every resolver maps
// its error through mapError so clients always see a stable extensions.code.
func newSchema(svc *Service) (graphql.Schema, error) {
	organizationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Organization",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"viewerRole": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					source, ok := p.Source.(map[string]interface{})
					if !ok {
						return nil, nil
					}
					id, ok := source["id"].(int)
					if !ok {
						return nil, nil
					}
					role, err := svc.RoleOf(p.Context, viewer, int64(id))
					if err != nil {
						return nil, mapError(err)
					}
					if role == "" {
						return nil, nil
					}
					return role, nil
				},
			},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"email":              &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"activeOrganization": &graphql.Field{Type: organizationType},
			"createdAt":          &graphql.Field{Type: graphql.DateTime},
		},
	})

	membershipType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OrganizationMembership",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"userId":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"userEmail":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"organizationId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"role":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"joinedAt":       &graphql.Field{Type: graphql.DateTime},
		},
	})

	documentCreatorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DocumentCreator",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"email": &graphql.Field{Type: graphql.String},
		},
	})

	documentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Document",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"content":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"organization": &graphql.Field{Type: organizationType},
			"createdBy":    &graphql.Field{Type: documentCreatorType},
			"createdAt":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	conversationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AIConversation",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"documentId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"userId":     &graphql.Field{Type: graphql.Int},
			"question":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"answer":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"refreshToken": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"expiresAt":    &graphql.Field{Type: graphql.DateTime},
			"user":         &graphql.Field{Type: userType},
		},
	})

	verifyPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VerifyPayload",
		Fields: graphql.Fields{
			"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"expiresAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	searchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"documentId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"snippet":    &graphql.Field{Type: graphql.String},
		},
	})

	searchResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResponse",
		Fields: graphql.Fields{
			"results": &graphql.Field{Type: graphql.NewList(searchResultType)},
			"total":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"query":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	createDocumentPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CreateDocumentPayload",
		Fields: graphql.Fields{
			"success":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"document": &graphql.Field{Type: documentType},
		},
	})

	askQuestionPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AskDocumentAiQuestionPayload",
		Fields: graphql.Fields{
			"success":      &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"conversation": &graphql.Field{Type: conversationType},
		},
	})

	invitePayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "InviteUserPayload",
		Fields: graphql.Fields{
			"success":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"membership": &graphql.Field{Type: membershipType},
		},
	})

	setActiveOrganizationPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SetActiveOrganizationPayload",
		Fields: graphql.Fields{
			"success":      &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"organization": &graphql.Field{Type: organizationType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					user, org, err := svc.CurrentUser(p.Context, viewer)
					if err != nil {
						return nil, mapError(err)
					}
					return userPayload(user, org), nil
				},
			},
			"organizations": &graphql.Field{
				Type: graphql.NewList(organizationType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					orgs, err := svc.Organizations(p.Context, viewer)
					if err != nil {
						return nil, mapError(err)
					}
					payloads := make([]interface{}, 0, len(orgs))
					for _, org := range orgs {
						payloads = append(payloads, organizationPayload(org))
					}
					return payloads, nil
				},
			},
			"documents": &graphql.Field{
				Type: graphql.NewList(documentType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					docs, err := svc.Documents(p.Context, viewer)
					if err != nil {
						return nil, mapError(err)
					}
					payloads := make([]interface{}, 0, len(docs))
					for _, doc := range docs {
						payloads = append(payloads, documentPayload(doc))
					}
					return payloads, nil
				},
			},
			"document": &graphql.Field{
				Type: documentType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					id, _ := p.Args["id"].(int)
					doc, err := svc.Document(p.Context, viewer, int64(id))
					if err != nil {
						return nil, mapError(err)
					}
					return documentPayload(doc), nil
				},
			},
			"aiConversations": &graphql.Field{
				Type: graphql.NewList(conversationType),
				Args: graphql.FieldConfigArgument{
					"documentId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					documentID, _ := p.Args["documentId"].(int)
					conversations, err := svc.Conversations(p.Context, viewer, int64(documentID))
					if err != nil {
						return nil, mapError(err)
					}
					payloads := make([]interface{}, 0, len(conversations))
					for _, conversation := range conversations {
						payloads = append(payloads, conversationPayload(conversation))
					}
					return payloads, nil
				},
			},
			"organizationMembers": &graphql.Field{
				Type: graphql.NewList(membershipType),
				Args: graphql.FieldConfigArgument{
					"organizationId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					organizationID, _ := p.Args["organizationId"].(int)
					members, err := svc.OrganizationMembers(p.Context, viewer, int64(organizationID))
					if err != nil {
						return nil, mapError(err)
					}
					payloads := make([]interface{}, 0, len(members))
					for _, membership := range members {
						payloads = append(payloads, membershipPayload(membership))
					}
					return payloads, nil
				},
			},
			"searchDocuments": &graphql.Field{
				Type: searchResponseType,
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					query, _ := p.Args["query"].(string)
					limit, _ := p.Args["limit"].(int)
					response, err := svc.SearchDocuments(p.Context, viewer, query, limit)
					if err != nil {
						return nil, mapError(err)
					}
					return searchPayload(response), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"tokenAuth": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := p.Args["email"].(string)
					password, _ := p.Args["password"].(string)
					session, err := svc.TokenAuth(p.Context, email, password)
					if err != nil {
						return nil, mapError(err)
					}
					return authPayload(session), nil
				},
			},
			"registerUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := p.Args["email"].(string)
					password, _ := p.Args["password"].(string)
					user, err := svc.Register(p.Context, email, password)
					if err != nil {
						return nil, mapError(err)
					}
					return userPayload(user, nil), nil
				},
			},
			"verifyToken": &graphql.Field{
				Type: verifyPayloadType,
				Args: graphql.FieldConfigArgument{
					"token": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					token, _ := p.Args["token"].(string)
					claims, err := svc.VerifyToken(p.Context, token)
					if err != nil {
						return nil, mapError(err)
					}
					return map[string]interface{}{
						"userId":    int(claims.UserID),
						"email":     claims.Email,
						"expiresAt": claims.ExpiresAt,
					}, nil
				},
			},
			"refreshToken": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					refreshToken, _ := p.Args["refreshToken"].(string)
					session, err := svc.Refresh(p.Context, refreshToken)
					if err != nil {
						return nil, mapError(err)
					}
					return authPayload(session), nil
				},
			},
			"createDocument": &graphql.Field{
				Type: createDocumentPayloadType,
				Args: graphql.FieldConfigArgument{
					"title":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"content": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					title, _ := p.Args["title"].(string)
					content, _ := p.Args["content"].(string)
					doc, err := svc.CreateDocument(p.Context, viewer, title, content)
					if err != nil {
						return nil, mapError(err)
					}
					return map[string]interface{}{
						"success":  true,
						"document": documentPayload(doc),
					}, nil
				},
			},
			"askDocumentAiQuestion": &graphql.Field{
				Type: askQuestionPayloadType,
				Args: graphql.FieldConfigArgument{
					"documentId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"question":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					documentID, _ := p.Args["documentId"].(int)
					question, _ := p.Args["question"].(string)
					conversation, err := svc.AskQuestion(p.Context, viewer, int64(documentID), question)
					if err != nil {
						return nil, mapError(err)
					}
					return map[string]interface{}{
						"success":      true,
						"conversation": conversationPayload(conversation),
					}, nil
				},
			},
			"inviteUserToOrganization": &graphql.Field{
				Type: invitePayloadType,
				Args: graphql.FieldConfigArgument{
					"organizationId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"userEmail":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					organizationID, _ := p.Args["organizationId"].(int)
					userEmail, _ := p.Args["userEmail"].(string)
					role, _ := p.Args["role"].(string)
					membership, err := svc.InviteUser(p.Context, viewer, int64(organizationID), userEmail, role)
					if err != nil {
						return nil, mapError(err)
					}
					return map[string]interface{}{
						"success":    true,
						"membership": membershipPayload(membership),
					}, nil
				},
			},
			"setActiveOrganization": &graphql.Field{
				Type: setActiveOrganizationPayloadType,
				Args: graphql.FieldConfigArgument{
					"organizationId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					viewer, err := requireViewer(p)
					if err != nil {
						return nil, mapError(err)
					}
					organizationID, _ := p.Args["organizationId"].(int)
					org, err := svc.SetActiveOrganization(p.Context, viewer, int64(organizationID))
					if err != nil {
						return nil, mapError(err)
					}
					return map[string]interface{}{
						"success":      true,
						"organization": organizationPayload(org),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func organizationPayload(org store.Organization) map[string]interface{} {
	return map[string]interface{}{
		"id":        int(org.ID),
		"name":      org.Name,
		"createdAt": org.CreatedAt,
	}
}

func userPayload(user store.User, activeOrg *store.Organization) map[string]interface{} {
	payload := map[string]interface{}{
		"id":        int(user.ID),
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	}
	if activeOrg != nil {
		payload["activeOrganization"] = organizationPayload(*activeOrg)
	}
	return payload
}

func membershipPayload(m store.Membership) map[string]interface{} {
	return map[string]interface{}{
		"id":             int(m.ID),
		"userId":         int(m.UserID),
		"userEmail":      m.UserEmail,
		"organizationId": int(m.OrganizationID),
		"role":           m.Role,
		"joinedAt":       m.JoinedAt,
	}
}

func documentPayload(doc store.Document) map[string]interface{} {
	payload := map[string]interface{}{
		"id":      int(doc.ID),
		"title":   doc.Title,
		"content": doc.Content,
		"organization": map[string]interface{}{
			"id":   int(doc.OrganizationID),
			"name": doc.OrganizationName,
		},
		"createdAt": doc.CreatedAt,
	}
	if doc.CreatedBy != nil {
		payload["createdBy"] = map[string]interface{}{
			"id":    int(*doc.CreatedBy),
			"email": doc.CreatedByEmail,
		}
	}
	return payload
}

func conversationPayload(c store.AIConversation) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         int(c.ID),
		"documentId": int(c.DocumentID),
		"question":   c.Question,
		"answer":     c.Answer,
		"createdAt":  c.CreatedAt,
	}
	if c.UserID != nil {
		payload["userId"] = int(*c.UserID)
	}
	return payload
}

func authPayload(session Session) map[string]interface{} {
	payload := map[string]interface{}{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt,
		"user": map[string]interface{}{
			"id":    int(session.UserID),
			"email": session.Email,
		},
	}
	return payload
}

func searchPayload(response search.Response) map[string]interface{} {
	results := make([]interface{}, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, map[string]interface{}{
			"documentId": int(r.ID),
			"title":      r.Title,
			"snippet":    r.Snippet,
		})
	}
	return map[string]interface{}{
		"results": results,
		"total":   response.Total,
		"query":   response.Query,
	}
}
