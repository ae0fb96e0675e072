package net

import "fmt"

const (
	msgQueryIdentifier uint8 = iota
	msgIdentifierReply
	msgCreateNode
	msgDeleteNode
	msgModifyNode
	msgModifyNodeReply
	msgCreateLink
	msgDeleteLink
	msgErrorReply
)

// QueryIdentifierRequest asks the component hosting the object called Name for
// its identifier. The component answers with an IdentifierReply, or an
// ErrorReply if it does not know the object.
type QueryIdentifierRequest struct {
	From string
	Name string
}

// IdentifierReply carries the identifier of the object called Name.
type IdentifierReply struct {
	From       string
	Name       string
	Identifier uint32
}

// VariableDescriptor describes a variable in a CreateNodeRequest.
type VariableDescriptor struct {
	Name      string
	Direction uint8
	Type      string
}

// CreateNodeRequest instructs a component to construct a node and its
// variables.
type CreateNodeRequest struct {
	From       string
	Name       string
	Type       string
	Variables  []VariableDescriptor
	Attributes map[string]string
}

// DeleteNodeRequest instructs a component to destroy a node.
type DeleteNodeRequest struct {
	From       string
	Name       string
	Identifier uint32
}

// ModifyNodeRequest pushes locally edited attributes to a component.
type ModifyNodeRequest struct {
	From       string
	Name       string
	Identifier uint32
	Attributes map[string]string
}

// ModifyNodeReply acknowledges a ModifyNodeRequest.
type ModifyNodeReply struct {
	From       string
	Name       string
	Identifier uint32
}

// LinkSide tells which end of a link the receiving component hosts.
type LinkSide uint8

const (
	// SourceSide is the component hosting the source variable.
	SourceSide LinkSide = iota
	// TargetSide is the component hosting the target variable.
	TargetSide
)

// String ...
func (s LinkSide) String() string {
	switch s {
	case SourceSide:
		return "source"
	case TargetSide:
		return "target"
	default:
		return "unknown"
	}
}

// CreateLinkRequest is one half of the two-message link exchange. One request
// goes to the component of each endpoint, and both carry both identifiers.
type CreateLinkRequest struct {
	From       string
	Side       LinkSide
	Source     uint32
	Target     uint32
	SourceName string
	TargetName string
}

// DeleteLinkRequest is one half of the two-message unlink exchange.
type DeleteLinkRequest struct {
	From       string
	Side       LinkSide
	Source     uint32
	Target     uint32
	SourceName string
	TargetName string
}

// ErrorReply reports that a component could not process a request concerning
// the object called Name.
type ErrorReply struct {
	From  string
	Name  string
	Error string
}

// messageType returns the wire tag of a message.
func messageType(msg interface{}) (uint8, error) {
	switch msg.(type) {
	case *QueryIdentifierRequest:
		return msgQueryIdentifier, nil
	case *IdentifierReply:
		return msgIdentifierReply, nil
	case *CreateNodeRequest:
		return msgCreateNode, nil
	case *DeleteNodeRequest:
		return msgDeleteNode, nil
	case *ModifyNodeRequest:
		return msgModifyNode, nil
	case *ModifyNodeReply:
		return msgModifyNodeReply, nil
	case *CreateLinkRequest:
		return msgCreateLink, nil
	case *DeleteLinkRequest:
		return msgDeleteLink, nil
	case *ErrorReply:
		return msgErrorReply, nil
	default:
		return 0, fmt.Errorf("unknown message type %T", msg)
	}
}

// newMessage returns a pointer to a zero message for a wire tag.
func newMessage(t uint8) (interface{}, error) {
	switch t {
	case msgQueryIdentifier:
		return &QueryIdentifierRequest{}, nil
	case msgIdentifierReply:
		return &IdentifierReply{}, nil
	case msgCreateNode:
		return &CreateNodeRequest{}, nil
	case msgDeleteNode:
		return &DeleteNodeRequest{}, nil
	case msgModifyNode:
		return &ModifyNodeRequest{}, nil
	case msgModifyNodeReply:
		return &ModifyNodeReply{}, nil
	case msgCreateLink:
		return &CreateLinkRequest{}, nil
	case msgDeleteLink:
		return &DeleteLinkRequest{}, nil
	case msgErrorReply:
		return &ErrorReply{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %d", t)
	}
}
