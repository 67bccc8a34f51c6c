package chat

import (
	"strings"

	"github.com/cinematch/cinematch/internal/recommend"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

// defaultMovieCount is how many movies accompany a genre reply.
const defaultMovieCount = 4

// Reply is the responder's answer to one chat message.
type Reply struct {
	Message string               `json:"message"`
	Movies  []models.ScoredMovie `json:"movies,omitempty"`
	Topic   string               `json:"topic,omitempty"`
}

// genreRule matches a family of keywords to a set of catalog genres.
type genreRule struct {
	topic    string
	keywords []string
	reply    string
	genres   []string
}

// Rules are checked in order; the first match wins.
var genreRules = []genreRule{
	{
		topic:    "action",
		keywords: []string{"action", "fight", "adventure", "thriller", "explosive", "intense"},
		reply:    "Here are some adrenaline-pumping recommendations:",
		genres:   []string{"Action", "Adventure", "Thriller"},
	},
	{
		topic:    "comedy",
		keywords: []string{"comedy", "comedies", "funny", "laugh", "humor", "hilarious", "joke"},
		reply:    "Comedy is the best medicine! Here are some movies that'll make you laugh:",
		genres:   []string{"Comedy"},
	},
	{
		topic:    "drama",
		keywords: []string{"drama", "emotional", "deep", "serious", "touching", "meaningful"},
		reply:    "Drama movies can be so powerful! Here are some emotionally rich films:",
		genres:   []string{"Drama"},
	},
	{
		topic:    "horror",
		keywords: []string{"horror", "scary", "frightening", "spooky", "terror", "creepy"},
		reply:    "Ready for some scares? Here are some spine-chilling horror movies:",
		genres:   []string{"Horror", "Thriller"},
	},
	{
		topic:    "romance",
		keywords: []string{"romance", "love", "romantic", "relationship", "dating", "heart"},
		reply:    "Love is in the air! Here are some beautiful romantic movies:",
		genres:   []string{"Romance"},
	},
	{
		topic:    "sci-fi",
		keywords: []string{"sci-fi", "scifi", "science fiction", "space", "future", "alien", "technology"},
		reply:    "The future is here! Check out these amazing sci-fi movies:",
		genres:   []string{"Science Fiction"},
	},
	{
		topic:    "fantasy",
		keywords: []string{"fantasy", "magic", "wizard", "dragon", "mythical", "supernatural"},
		reply:    "Enter magical worlds! Here are some enchanting fantasy movies:",
		genres:   []string{"Fantasy"},
	},
	{
		topic:    "animation",
		keywords: []string{"animation", "animated", "cartoon", "cartoons", "pixar", "disney", "kids"},
		reply:    "Animation brings stories to life! Here are some amazing animated films:",
		genres:   []string{"Animation"},
	},
}

var greetings = []string{"hello", "hi", "hey", "good morning", "good evening", "greetings"}

var helpKeywords = []string{"help", "what can you do", "how do you work", "commands"}

// moodRule maps an expressed mood to a genre set.
type moodRule struct {
	topic    string
	keywords []string
	reply    string
	genres   []string
}

var moodRules = []moodRule{
	{
		topic:    "mood_boost",
		keywords: []string{"sad", "depressed"},
		reply:    "When you're feeling down, sometimes a good comedy or uplifting drama helps! Here are some mood-boosting movies:",
		genres:   []string{"Comedy", "Drama"},
	},
	{
		topic:    "high_energy",
		keywords: []string{"excited", "energetic"},
		reply:    "You're full of energy! Here are some high-octane movies to match your vibe:",
		genres:   []string{"Action", "Adventure"},
	},
}

const (
	greetingReply = "Hello! I'm your movie assistant. I can recommend movies based on genres. " +
		"Try asking me about action, comedy, drama, horror, romance, sci-fi, fantasy, or animation movies!"

	helpReply = "I'm here to help you find great movies! Ask me about specific genres " +
		"(action, comedy, drama, horror, romance, sci-fi, fantasy, animation) and I'll " +
		"recommend titles from the catalog. Try: 'I want action movies' or 'Show me comedies'. " +
		"I can also suggest movies based on your mood!"

	defaultReply = "I'm not sure what you're looking for. Try asking me about specific genres, " +
		"for example 'I want action movies', 'Show me comedies', or 'Recommend sci-fi movies'. " +
		"What genre interests you today?"
)

// Responder answers free-form chat messages with genre-based movie
// recommendations.
type Responder struct {
	engine *recommend.Engine
	logger interfaces.Logger
}

// NewResponder creates a new chat responder.
func NewResponder(engine *recommend.Engine, logger interfaces.Logger) *Responder {
	return &Responder{engine: engine, logger: logger}
}

// Respond produces a reply for one user message. Messages that mention
// no known genre, mood, greeting, or help keyword get a hint about what
// the responder understands.
func (r *Responder) Respond(message string) *Reply {
	message = strings.ToLower(strings.TrimSpace(message))

	if containsAny(message, greetings) {
		return &Reply{Message: greetingReply}
	}

	if containsAny(message, helpKeywords) {
		return &Reply{Message: helpReply}
	}

	for _, rule := range moodRules {
		if containsAny(message, rule.keywords) {
			return &Reply{
				Message: rule.reply,
				Movies:  r.engine.ByGenreFallback(rule.genres, defaultMovieCount),
				Topic:   rule.topic,
			}
		}
	}

	for _, rule := range genreRules {
		if containsAny(message, rule.keywords) {
			r.logger.Debug("Chat genre match", interfaces.String("topic", rule.topic))

			return &Reply{
				Message: rule.reply,
				Movies:  r.engine.ByGenreFallback(rule.genres, defaultMovieCount),
				Topic:   rule.topic,
			}
		}
	}

	return &Reply{Message: defaultReply}
}

func containsAny(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}

	return false
}
